//go:build windows

package process_windows

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"h3mem/process"

	"golang.org/x/sys/windows"
)

// WindowsProcessFinder implements process.ProcessFinder with Toolhelp32 snapshots
type WindowsProcessFinder struct{}

func NewProcessFinder() *WindowsProcessFinder {
	return &WindowsProcessFinder{}
}

func (f *WindowsProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	all, err := f.list()
	if err != nil {
		return nil, err
	}
	for _, info := range all {
		if info.PID == pid {
			return &info, nil
		}
	}
	return nil, fmt.Errorf("process with PID %d: %w", pid, process.ErrProcessUnavailable)
}

// FindProcessByName matches the executable name ignoring case, lowest PID first
func (f *WindowsProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	all, err := f.list()
	if err != nil {
		return nil, err
	}
	var out []process.ProcessInfo
	for _, info := range all {
		if strings.EqualFold(info.Name, name) {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (f *WindowsProcessFinder) list() ([]process.ProcessInfo, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, fmt.Errorf("Process32First: %w", err)
	}

	var out []process.ProcessInfo
	for {
		out = append(out, process.ProcessInfo{
			PID:  process.ProcessID(entry.ProcessID),
			Name: windows.UTF16ToString(entry.ExeFile[:]),
		})
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			break
		}
	}
	return out, nil
}

// WindowsProcessHelper implements process.ProcessOpener
type WindowsProcessHelper struct {
	Finder process.ProcessFinder
}

var _ process.ProcessOpener = (*WindowsProcessHelper)(nil)

func NewHelper() *WindowsProcessHelper {
	return &WindowsProcessHelper{Finder: NewProcessFinder()}
}

func (h *WindowsProcessHelper) NewWithPID(pid process.ProcessID) (process.Process, error) {
	p, err := NewWithPID(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (h *WindowsProcessHelper) OpenProcessByName(name string) (process.Process, error) {
	processes, err := h.Finder.FindProcessByName(name)
	if err != nil {
		return nil, err
	}
	if len(processes) == 0 {
		return nil, fmt.Errorf("no process found with name '%s': %w", name, process.ErrProcessUnavailable)
	}
	return h.NewWithPID(processes[0].PID)
}

func equalFoldUTF16(buf []uint16, name string) bool {
	return strings.EqualFold(windows.UTF16ToString(buf), name)
}
