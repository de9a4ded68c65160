package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"h3mem/layout"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LayoutVersion != "heroes3-sod" || cfg.RefreshInterval != 100*time.Millisecond || cfg.Color != ColorAuto {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	l, err := cfg.Layout()
	if err != nil || l != layout.Heroes3 {
		t.Fatalf("Layout = %v, %v", l, err)
	}
	if cfg.ProcessName(l) != "HEROES3.EXE" {
		t.Fatalf("ProcessName = %q", cfg.ProcessName(l))
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("H3MEM_PROCESS", "heroes3 hd.exe")
	t.Setenv("H3MEM_PID", "4242")
	t.Setenv("H3MEM_REFRESH_INTERVAL", "250ms")
	t.Setenv("H3MEM_COLOR", "never")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Process != "heroes3 hd.exe" || cfg.PID != 4242 || cfg.RefreshInterval != 250*time.Millisecond || cfg.Color != ColorNever {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ProcessName(layout.Heroes3) != "heroes3 hd.exe" {
		t.Fatalf("ProcessName override ignored")
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("H3MEM_PID", "not-a-pid")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{LayoutVersion: "heroes3-sod", RefreshInterval: time.Second, Color: ColorAuto}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative pid", func(c *Config) { c.PID = -1 }},
		{"zero interval", func(c *Config) { c.RefreshInterval = 0 }},
		{"color", func(c *Config) { c.Color = "rainbow" }},
		{"dump and demo", func(c *Config) { c.DumpDir = "/tmp/x"; c.Demo = true }},
	}
	for _, tt := range tests {
		cfg := base
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestLayoutFileWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	custom := *layout.Heroes3
	custom.Version = "heroes3-custom"
	if err := custom.WriteYAML(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg := Config{LayoutFile: path, LayoutVersion: "does-not-exist"}
	l, err := cfg.Layout()
	if err != nil || l.Version != "heroes3-custom" {
		t.Fatalf("Layout = %v, %v", l, err)
	}

	cfg.LayoutFile = ""
	if _, err := cfg.Layout(); !errors.Is(err, layout.ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
}
