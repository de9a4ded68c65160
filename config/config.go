// Package config holds the settings shared by every h3cheat command. Values come from the
// environment first; command line flags override them.
package config

import (
	"fmt"
	"time"

	"h3mem/layout"

	"github.com/caarlos0/env/v11"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Process         string        `env:"H3MEM_PROCESS"`
	PID             int           `env:"H3MEM_PID"`
	LayoutFile      string        `env:"H3MEM_LAYOUT_FILE"`
	LayoutVersion   string        `env:"H3MEM_LAYOUT_VERSION"   envDefault:"heroes3-sod"`
	DumpDir         string        `env:"H3MEM_DUMP_DIR"`
	Demo            bool          `env:"H3MEM_DEMO"`
	RefreshInterval time.Duration `env:"H3MEM_REFRESH_INTERVAL" envDefault:"100ms"`
	HistoryFile     string        `env:"H3MEM_HISTORY_FILE"`
	Color           string        `env:"H3MEM_COLOR"            envDefault:"auto"`
	Debug           bool          `env:"H3MEM_DEBUG"`
}

// ParseEnv fills target from the environment.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the environment configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.PID < 0 {
		return fmt.Errorf("pid %d must not be negative", c.PID)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval %s must be positive", c.RefreshInterval)
	}
	if c.DumpDir != "" && c.Demo {
		return fmt.Errorf("a dump directory and the demo target are mutually exclusive")
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color %q: want auto, always or never", c.Color)
	}
	return nil
}

// Layout picks the layout table: a YAML file when one is set, else a registered version.
func (c Config) Layout() (*layout.Layout, error) {
	if c.LayoutFile != "" {
		return layout.LoadFile(c.LayoutFile)
	}
	return layout.Lookup(c.LayoutVersion)
}

// ProcessName is the process to attach to, defaulting to the layout's.
func (c Config) ProcessName(l *layout.Layout) string {
	if c.Process != "" {
		return c.Process
	}
	return l.ProcessName
}
