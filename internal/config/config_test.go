package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error for a missing file: %v", err)
	}
	if cfg.Repl.Prompt != "> " {
		t.Errorf("Repl.Prompt = %q, want %q", cfg.Repl.Prompt, "> ")
	}
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	contents := `
[repl]
prompt = "lox> "
history_file = ".finch_history"

[debug]
trace_execution = true
stress_gc = true

[gc]
initial_heap_bytes = 2048
heap_grow_factor = 1.5
`
	if err := os.WriteFile(filepath.Join(dir, "finch.toml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Repl.Prompt != "lox> " {
		t.Errorf("Repl.Prompt = %q, want %q", cfg.Repl.Prompt, "lox> ")
	}
	if !cfg.Debug.TraceExecution || !cfg.Debug.StressGC {
		t.Error("debug flags should be true")
	}
	if cfg.GC.InitialHeapBytes != 2048 {
		t.Errorf("GC.InitialHeapBytes = %d, want 2048", cfg.GC.InitialHeapBytes)
	}
	if cfg.GC.HeapGrowFactor != 1.5 {
		t.Errorf("GC.HeapGrowFactor = %v, want 1.5", cfg.GC.HeapGrowFactor)
	}
}

func TestLoadMalformedFileIsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "finch.toml"), []byte("not valid toml [["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error parsing malformed TOML")
	}
}

func TestFindAndLoadWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	contents := "[repl]\nprompt = \"up> \"\n"
	if err := os.WriteFile(filepath.Join(root, "finch.toml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad returned error: %v", err)
	}
	if cfg.Repl.Prompt != "up> " {
		t.Errorf("Repl.Prompt = %q, want %q", cfg.Repl.Prompt, "up> ")
	}
}
