//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"h3mem/process"
)

// LinuxProcessFinder implements the process.ProcessFinder interface over /proc
type LinuxProcessFinder struct {
	// Root is the procfs mount point, "/proc" when empty
	Root string
}

// NewProcessFinder creates a new LinuxProcessFinder
func NewProcessFinder() *LinuxProcessFinder {
	return &LinuxProcessFinder{Root: "/proc"}
}

func (f *LinuxProcessFinder) root() string {
	if f.Root == "" {
		return "/proc"
	}
	return f.Root
}

// FindProcessByPID finds a process by its PID
func (f *LinuxProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	info, err := f.processInfo(strconv.Itoa(int(pid)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("process with PID %d: %w", pid, process.ErrProcessUnavailable)
		}
		return nil, err
	}
	return info, nil
}

// FindProcessByName returns all processes whose comm or exe basename equals name,
// ignoring case (Wine reports "HEROES3.EXE" as comm), lowest PID first.
func (f *LinuxProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty process name")
	}

	entries, err := os.ReadDir(f.root())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.root(), err)
	}

	selfPID := os.Getpid()
	var out []process.ProcessInfo

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 || pid == selfPID {
			continue
		}

		// Process may have terminated while we were reading
		info, err := f.processInfo(e.Name())
		if err != nil {
			continue
		}

		if strings.EqualFold(info.Name, name) || (info.Exe != "" && strings.EqualFold(filepath.Base(info.Exe), name)) {
			out = append(out, *info)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (f *LinuxProcessFinder) processInfo(pidDir string) (*process.ProcessInfo, error) {
	pid, err := strconv.Atoi(pidDir)
	if err != nil {
		return nil, err
	}

	comm, err := os.ReadFile(filepath.Join(f.root(), pidDir, "comm"))
	if err != nil {
		return nil, err
	}

	// exe may be unreadable for zombies or other users' processes
	exe, _ := os.Readlink(filepath.Join(f.root(), pidDir, "exe"))

	return &process.ProcessInfo{
		PID:  process.ProcessID(pid),
		Name: strings.TrimSpace(string(comm)),
		Exe:  exe,
	}, nil
}
