package process

// ProcessOpener opens processes found by name or PID.
type ProcessOpener interface {
	// NewWithPID creates a new Process instance and opens it with the given PID
	NewWithPID(pid ProcessID) (Process, error)

	// OpenProcessByName opens a process by its name (returns the lowest PID match).
	// The error wraps ErrProcessUnavailable when nothing matches.
	OpenProcessByName(name string) (Process, error)
}
