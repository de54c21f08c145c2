package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("test-idx").
		Prefix("user:").
		Tag("email").
		Numeric("created_at").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "test-idx" {
		t.Errorf("name = %q, want test-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "email" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want email TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "created_at" || idx.Fields[1].Type != IndexFieldNumeric {
		t.Errorf("field[1] = %+v, want created_at NUMERIC", idx.Fields[1])
	}
}

func TestIndexBuilder_JSONAliasSortable(t *testing.T) {
	idx := NewIndex("items-idx").
		OnJSON().
		Prefix("lostfound:item:").
		Tag("$.type").As("type").
		Text("$.title").As("title").
		Numeric("$.created_at").As("created_at").Sortable().
		MustBuild()

	if idx.StorageType != StorageJSON {
		t.Errorf("storage = %q, want JSON", idx.StorageType)
	}
	if idx.Fields[0].Alias != "type" || idx.Fields[1].Alias != "title" {
		t.Errorf("aliases not applied: %+v", idx.Fields)
	}
	if idx.Fields[1].Sortable {
		t.Error("title should not be sortable")
	}
	if !idx.Fields[2].Sortable {
		t.Error("created_at should be sortable")
	}
}

func TestIndexBuilder_ModifiersOnEmpty(t *testing.T) {
	// As/Sortable before any field must not panic.
	b := NewIndex("idx").As("x").Sortable()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error for index without fields")
	}
}

func TestIndexBuilder_TagOptions(t *testing.T) {
	idx := NewIndex("tag-idx").
		Prefix("t:").
		TagWithOpts("tags", "|", true).
		MustBuild()

	f := idx.Fields[0]
	if f.TagSeparator != "|" {
		t.Errorf("separator = %q, want |", f.TagSeparator)
	}
	if !f.TagCaseSensitive {
		t.Error("expected TagCaseSensitive=true")
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx := NewIndex("multi-idx").
		Prefix("a:", "b:", "c:").
		Tag("x").
		MustBuild()

	if len(idx.Prefixes) != 3 {
		t.Errorf("prefix count = %d, want 3", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "duplicate alias",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").OnJSON().Tag("$.a").As("x").Tag("$.b").As("x").Build()
			},
			wantErr: "duplicate field name",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("x").Build()
			},
			wantErr: "invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("my-idx").
		OnJSON().
		Prefix("item:").
		Tag("$.category").As("category").
		Numeric("$.created_at").As("created_at").Sortable().
		MustBuild()

	s := idx.String()
	want := "FT.CREATE my-idx ON JSON PREFIX item: SCHEMA $.category AS category TAG $.created_at AS created_at NUMERIC SORTABLE"
	if s != want {
		t.Errorf("String() =\n%q\nwant\n%q", s, want)
	}
}

func TestIndexBuilder_DuplicateFields(t *testing.T) {
	idx := &IndexDefinition{
		Name: "dup-idx",
		Fields: []IndexField{
			{Name: "field1", Type: IndexFieldTag},
			{Name: "field1", Type: IndexFieldNumeric},
		},
	}

	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for duplicate fields")
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	if !(Filter{}).IsEmpty() {
		t.Error("zero filter should be empty")
	}
	if (Filter{Text: "wallet"}).IsEmpty() {
		t.Error("text filter should not be empty")
	}
	if (Filter{Tags: []TagCondition{{Field: "type", Value: "lost"}}}).IsEmpty() {
		t.Error("tag filter should not be empty")
	}
}
