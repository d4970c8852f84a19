package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestStoreChangedDetectsCreationAndEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hud.yaml")
	s := NewStore(path)

	if s.Changed() {
		t.Fatal("expected no change before file exists (both absent)")
	}

	if err := os.WriteFile(path, []byte("hud_table: {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !s.Changed() {
		t.Fatal("expected change on file creation")
	}
	if s.Changed() {
		t.Fatal("expected no change on second check with no edit")
	}

	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte("hud_table: {cols: 2}\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if !s.Changed() {
		t.Fatal("expected change after edit")
	}
}

// TestResolvedYAMLTags exercises the yaml struct tags on Resolved: this
// package never parses YAML itself (that's an external loader's job), but
// the tags must actually round-trip through the library callers are
// expected to use.
func TestResolvedYAMLTags(t *testing.T) {
	doc := []byte(`
hud_table:
  cols: 3
  rows:
    - - text: "fps"
        color: [255, 255, 255, 255]
      - ref:
          group: GLOBAL
          name: fps
        unit: ""
        precision: 0
options:
  font_size: 16
  fps_limit: 60
`)

	var r Resolved
	if err := yaml.Unmarshal(doc, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Table.Cols != 3 {
		t.Fatalf("cols = %d, want 3", r.Table.Cols)
	}
	if len(r.Table.Rows) != 1 || len(r.Table.Rows[0]) != 2 {
		t.Fatalf("rows = %+v, want 1 row of 2 cells", r.Table.Rows)
	}
	if got := r.Table.Rows[0][0].Text; got != "fps" {
		t.Fatalf("cell[0].Text = %q, want %q", got, "fps")
	}
	if got := r.Table.Rows[0][1].Ref; got.Group != "GLOBAL" || got.Name != "fps" {
		t.Fatalf("cell[1].Ref = %+v", got)
	}
	if r.Options.FontSize != 16 || r.Options.FPSLimit != 60 {
		t.Fatalf("options = %+v", r.Options)
	}
}

func TestStoreCurrentNilUntilSet(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "hud.yaml"))
	if s.Current() != nil {
		t.Fatal("expected nil Current before Set")
	}
	r := &Resolved{}
	r.Options.FontSize = 18
	s.Set(r)
	if got := s.Current(); got == nil || got.Options.FontSize != 18 {
		t.Fatalf("got %+v", got)
	}
}
