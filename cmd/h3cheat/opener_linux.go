package main

import (
	"h3mem/process"
	"h3mem/process_linux"
)

// The game runs under Wine on Linux; its memory is reached through the Wine process.
func newOpener() process.ProcessOpener {
	return process_linux.NewHelper()
}
