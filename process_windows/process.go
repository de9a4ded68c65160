//go:build windows

package process_windows

import (
	"fmt"
	"sync"
	"unsafe"

	"h3mem/process"
	"h3mem/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const processAccess = windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ |
	windows.PROCESS_VM_WRITE | windows.PROCESS_VM_OPERATION

// WindowsProcess implements the process.Process interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	mm     []memory_map.MemoryMapItem
	mu     sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

// New creates a new WindowsProcess instance
func New() *WindowsProcess {
	return &WindowsProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new WindowsProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*WindowsProcess, error) {
	p := New()
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *WindowsProcess) Open(pid process.ProcessID) error {
	handle, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess %d: %w: %v", pid, process.ErrProcessUnavailable, err)
	}

	p.mu.Lock()
	p.pid = pid
	p.handle = handle
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	if err := p.UpdateMemoryMap(); err != nil {
		p.log.Warn("Failed to initialize memory map: ", err)
	}

	p.log.Infoln("Process opened")
	return nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != 0 {
		if err := windows.CloseHandle(p.handle); err != nil {
			return fmt.Errorf("CloseHandle failed: %w", err)
		}
		p.handle = 0
	}

	p.pid = 0
	p.mm = nil
	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// UpdateMemoryMap walks the committed regions with VirtualQueryEx
func (p *WindowsProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()

	if handle == 0 {
		return process.ErrProcessNotOpen
	}

	var (
		mm   []memory_map.MemoryMapItem
		mbi  windows.MemoryBasicInformation
		addr uintptr
	)
	for {
		if err := windows.VirtualQueryEx(handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			break
		}
		if mbi.RegionSize == 0 {
			break
		}
		if mbi.State == windows.MEM_COMMIT {
			mm = append(mm, memory_map.MemoryMapItem{
				Address: uint64(mbi.BaseAddress),
				Size:    uint(mbi.RegionSize),
				Perms:   protectToPerms(mbi.Protect),
			})
		}
		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}

	memory_map.Sort(mm)

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()
	return nil
}

// protectToPerms renders a PAGE_* protection as a /proc/maps style string
func protectToPerms(protect uint32) string {
	if protect&windows.PAGE_GUARD != 0 {
		return "---p"
	}
	switch protect & 0xff {
	case windows.PAGE_READONLY:
		return "r--p"
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		return "rw-p"
	case windows.PAGE_EXECUTE:
		return "--xp"
	case windows.PAGE_EXECUTE_READ:
		return "r-xp"
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		return "rwxp"
	default:
		return "---p"
	}
}

func (p *WindowsProcess) regionInternal(addr process.ProcessMemoryAddress, writable bool) *memory_map.MemoryMapItem {
	item := memory_map.FindRegion(uint64(addr), p.mm)
	if item == nil || !item.IsReadable() {
		return nil
	}
	if writable && !item.IsWritable() {
		return nil
	}
	return item
}

func (p *WindowsProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regionInternal(addr, false) != nil
}

func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	handle := p.handle
	region := p.regionInternal(addr, false)
	p.mu.Unlock()

	if handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	if region == nil {
		return nil, fmt.Errorf("read %s: %w", addr.ToString(), process.ErrAddressNotMapped)
	}
	if size == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)
	var bytesRead uintptr
	if err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(size), &bytesRead); err != nil {
		return nil, fmt.Errorf("ReadProcessMemory at %s: %w", addr.ToString(), err)
	}
	if bytesRead != uintptr(size) {
		return nil, fmt.Errorf("ReadProcessMemory at %s: read %d of %d bytes", addr.ToString(), bytesRead, size)
	}

	return buf, nil
}

func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	handle := p.handle
	readable := p.regionInternal(addr, false)
	writable := p.regionInternal(addr, true)
	p.mu.Unlock()

	if handle == 0 {
		return process.ErrProcessNotOpen
	}
	if readable == nil {
		return fmt.Errorf("write %s: %w", addr.ToString(), process.ErrAddressNotMapped)
	}
	if writable == nil {
		return fmt.Errorf("write %s: %w", addr.ToString(), process.ErrAddressNotWritable)
	}
	if len(data) == 0 {
		return nil
	}

	var written uintptr
	if err := windows.WriteProcessMemory(handle, uintptr(addr), &data[0], uintptr(len(data)), &written); err != nil {
		return fmt.Errorf("WriteProcessMemory at %s: %w", addr.ToString(), err)
	}
	if written != uintptr(len(data)) {
		return fmt.Errorf("WriteProcessMemory at %s: only wrote %d of %d bytes", addr.ToString(), written, len(data))
	}
	return nil
}

// ModuleBase looks the module up in a Toolhelp32 snapshot of the process
func (p *WindowsProcess) ModuleBase(module string) (process.ProcessMemoryAddress, error) {
	pid := p.GetPID()
	if pid == 0 {
		return 0, process.ErrProcessNotOpen
	}

	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return 0, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var me32 windows.ModuleEntry32
	me32.Size = uint32(unsafe.Sizeof(me32))
	if err := windows.Module32First(snapshot, &me32); err != nil {
		return 0, fmt.Errorf("Module32First: %w", err)
	}
	for {
		if equalFoldUTF16(me32.Module[:], module) {
			return process.ProcessMemoryAddress(me32.ModBaseAddr), nil
		}
		if err := windows.Module32Next(snapshot, &me32); err != nil {
			break
		}
	}

	return 0, fmt.Errorf("%s in process %d: %w", module, pid, process.ErrModuleNotFound)
}
