// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "lostfound <version> (<commit>, <date>)".
func String() string {
	return fmt.Sprintf("lostfound %s (%s, %s)", Version, Commit, Date)
}
