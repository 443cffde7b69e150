package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const postSchema = `
name: Post
table: posts
fields:
  - name: id
    type: int
    primary: true
  - name: title
    type: string(200)
    default: Untitled
  - name: price
    type: decimal(10,2)
    nullable: true
  - name: status
    type: enum
    values: [draft, published]
    default: draft
  - name: deleted_at
    type: timestamp?
    default: null
`

func TestParseResource(t *testing.T) {
	resource, err := ParseResource([]byte(postSchema))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resource.Name != "Post" || resource.TableName != "posts" {
		t.Errorf("unexpected resource %s / %s", resource.Name, resource.TableName)
	}

	expected := []string{"id", "title", "price", "status", "deleted_at"}
	if got := strings.Join(resource.FieldNames(), ","); got != strings.Join(expected, ",") {
		t.Errorf("expected fields %v, got %s", expected, got)
	}

	title, _ := resource.Field("title")
	if !title.Type.HasDefault || title.Type.Default != "Untitled" {
		t.Errorf("expected title default, got %v", title.Type.Default)
	}
	if title.Type.Length == nil || *title.Type.Length != 200 {
		t.Error("expected title length 200")
	}

	price, _ := resource.Field("price")
	if !price.Type.Nullable || *price.Type.Precision != 10 || *price.Type.Scale != 2 {
		t.Errorf("unexpected price type %s", price.Type)
	}

	status, _ := resource.Field("status")
	if len(status.Type.EnumValues) != 2 {
		t.Errorf("expected enum values, got %v", status.Type.EnumValues)
	}

	deletedAt, _ := resource.Field("deleted_at")
	if !deletedAt.Type.HasDefault || deletedAt.Type.Default != nil {
		t.Error("expected an explicit null default")
	}

	id, _ := resource.Field("id")
	if id.Type.HasDefault {
		t.Error("expected no default on id")
	}
}

func TestParseResourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "unknown type",
			yaml:   "name: Post\nfields:\n  - name: price\n    type: money\n",
			errMsg: "unknown primitive type",
		},
		{
			name:   "duplicate field",
			yaml:   "name: Post\nfields:\n  - name: a\n    type: int\n  - name: a\n    type: int\n",
			errMsg: "already has a field named a",
		},
		{
			name:   "enum without values",
			yaml:   "name: Post\nfields:\n  - name: status\n    type: enum\n",
			errMsg: "enum requires at least one value",
		},
		{
			name:   "null default on required field",
			yaml:   "name: Post\nfields:\n  - name: title\n    type: string\n    default: null\n",
			errMsg: "default is null",
		},
		{
			name:   "missing name",
			yaml:   "fields:\n  - name: a\n    type: int\n",
			errMsg: "resource name is required",
		},
		{
			name:   "malformed yaml",
			yaml:   "name: [",
			errMsg: "failed to parse schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResource([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestLoadResource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.yml")
	if err := os.WriteFile(path, []byte(postSchema), 0o644); err != nil {
		t.Fatal(err)
	}

	resource, err := LoadResource(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resource.Fields) != 5 {
		t.Errorf("expected 5 fields, got %d", len(resource.Fields))
	}

	if _, err := LoadResource(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}
