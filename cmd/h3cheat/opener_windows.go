package main

import (
	"h3mem/process"
	"h3mem/process_windows"
)

func newOpener() process.ProcessOpener {
	return process_windows.NewHelper()
}
