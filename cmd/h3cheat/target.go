package main

import (
	"errors"
	"fmt"

	"h3mem/config"
	"h3mem/fakegame"
	"h3mem/layout"
	"h3mem/process"
	"h3mem/process_blob"
)

var errUnsupportedPlatform = errors.New("attaching to a live process is not supported on this platform")

// openTarget returns the demo game, a loaded capture, or the live process, in that order.
func openTarget(cfg config.Config, l *layout.Layout) (process.Process, error) {
	switch {
	case cfg.Demo:
		g, err := fakegame.NewDemo(l)
		if err != nil {
			return nil, err
		}
		return g, nil
	case cfg.DumpDir != "":
		m, err := process_blob.Load(cfg.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("load capture %s: %w", cfg.DumpDir, err)
		}
		return m, nil
	}
	return openLive(cfg, l)
}

func openLive(cfg config.Config, l *layout.Layout) (process.Process, error) {
	opener := newOpener()
	if opener == nil {
		return nil, errUnsupportedPlatform
	}
	if cfg.PID != 0 {
		return opener.NewWithPID(process.ProcessID(cfg.PID))
	}
	return opener.OpenProcessByName(cfg.ProcessName(l))
}
