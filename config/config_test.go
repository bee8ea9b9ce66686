package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holocm/rpmcore/fsm"
)

func TestLoadTransactionTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holo.toml")
	contents := `
[transaction]
test = true
map_path = true
map_mode = true
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if !opts.Test {
		t.Fatalf("expected Test=true")
	}
	if opts.JustDB || opts.NoScripts || opts.Commit || opts.Reverse {
		t.Fatalf("expected all other flags false, got %+v", opts.Options)
	}
	want := fsm.MapPath | fsm.MapMode
	if opts.MapFlags != want {
		t.Fatalf("MapFlags = %v, want %v", opts.MapFlags, want)
	}
}

func TestLoadMissingTransactionTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.toml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if opts.MapFlags != 0 || opts.Test {
		t.Fatalf("expected zero-value Options, got %+v", opts)
	}
}
