package main

import (
	"io"
	"testing"

	"github.com/urfave/cli"
)

func run(t *testing.T, args ...string) (int, error) {
	t.Helper()
	code := -1
	oldExiter, oldErr := cli.OsExiter, cli.ErrWriter
	cli.OsExiter = func(c int) { code = c }
	cli.ErrWriter = io.Discard
	defer func() { cli.OsExiter, cli.ErrWriter = oldExiter, oldErr }()

	err := newApp().Run(append([]string{"h3cheat", "--color", "never"}, args...))
	return code, err
}

func TestOneShotAgainstDemo(t *testing.T) {
	for _, args := range [][]string{
		{"--demo", "player"},
		{"--demo", "set", "wood", "2500"},
		{"--demo", "get", "movelimit"},
		{"--demo", "fields"},
		{"layouts"},
	} {
		if _, err := run(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
}

func TestOneShotRefused(t *testing.T) {
	code, err := run(t, "--demo", "set", "hero.name", "1")
	if err == nil || code != 1 {
		t.Fatalf("read-only set: err %v, exit code %d", err, code)
	}
}

func TestEnvironmentAndFlags(t *testing.T) {
	t.Setenv("H3MEM_DEMO", "true")
	if _, err := run(t, "get", "gold"); err != nil {
		t.Fatalf("demo from environment: %v", err)
	}

	if _, err := run(t, "--dump", t.TempDir(), "player"); err == nil {
		t.Fatalf("dump and demo together accepted")
	}
	if _, err := run(t, "--demo=false", "--layout-version", "heroes3-nope", "layouts"); err == nil {
		t.Fatalf("unknown layout version accepted")
	}
}

func TestCaptureNeedsLiveProcess(t *testing.T) {
	if _, err := run(t, "--demo", "capture", t.TempDir()); err == nil {
		t.Fatalf("capture of the demo accepted")
	}
}
