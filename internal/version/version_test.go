package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "1.2.0", "abc123", "2025-03-01"
	if got, want := String(), "lostfound 1.2.0 (abc123, 2025-03-01)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
