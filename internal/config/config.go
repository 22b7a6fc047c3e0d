// Package config loads the optional finch.toml file the CLI and the REPL
// consult for their tunables. Absence of the file is not an error: every
// caller gets the same defaults Load would have filled in.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config mirrors finch.toml's three sections.
type Config struct {
	Repl  Repl  `toml:"repl"`
	Debug Debug `toml:"debug"`
	GC    GC    `toml:"gc"`
}

// Repl configures REPL-only behavior.
type Repl struct {
	HistoryFile string `toml:"history_file"`
	Prompt      string `toml:"prompt"`
}

// Debug configures the diagnostic flags also reachable from the CLI.
type Debug struct {
	TraceExecution bool `toml:"trace_execution"`
	StressGC       bool `toml:"stress_gc"`
	LogGC          bool `toml:"log_gc"`
}

// GC configures the collector's threshold policy.
type GC struct {
	InitialHeapBytes int     `toml:"initial_heap_bytes"`
	HeapGrowFactor   float64 `toml:"heap_grow_factor"`
}

// Default returns the configuration used when no finch.toml is found.
func Default() Config {
	return Config{
		Repl: Repl{Prompt: "> "},
	}
}

// Load reads finch.toml from dir. If the file does not exist, it returns
// Default and a nil error rather than treating a missing config as a
// failure.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, "finch.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for finch.toml, stopping at
// the first directory containing one or at the filesystem root.
func FindAndLoad(startDir string) (Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Config{}, err
	}

	for {
		path := filepath.Join(dir, "finch.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
