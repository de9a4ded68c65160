// Package process provides interfaces and types for reading and writing the memory of
// another process.
package process

import "errors"

// The API surface is split across files:
// - types.go: ProcessID, ProcessInfo
// - memory_types.go: ProcessMemoryAddress, ProcessMemorySize
// - process_interface.go: Memory and Process interfaces
// - process_finder.go: ProcessFinder interface
// - process_helper.go: ProcessOpener interface
// - typed.go: fixed-width integer, string and pointer codecs over Memory

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrAddressNotWritable is returned when a write targets a region without write permission.
	ErrAddressNotWritable = errors.New("address not writable")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrProcessUnavailable is returned when no running process matches a lookup.
	ErrProcessUnavailable = errors.New("process unavailable")

	// ErrModuleNotFound is returned when a module is not mapped in the process.
	ErrModuleNotFound = errors.New("module not found")

	ErrInvalidPointer = errors.New("invalid pointer read")
)
