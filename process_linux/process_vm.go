//go:build linux

package process_linux

import (
	"fmt"

	"h3mem/process"

	"golang.org/x/sys/unix"
)

// ReadMemory reads memory from the process at the specified address using process_vm_readv
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	pid := p.pid
	region := p.regionInternal(addr, false)
	p.mu.Unlock()

	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}
	if region == nil {
		return nil, fmt.Errorf("read %s: %w", addr.ToString(), process.ErrAddressNotMapped)
	}
	if size == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(int(pid), local, remote, 0)
	if err != nil {
		return nil, fmt.Errorf("process_vm_readv at %s: %w", addr.ToString(), err)
	}
	if n != len(buf) {
		return nil, fmt.Errorf("process_vm_readv at %s: partial read %d of %d bytes", addr.ToString(), n, len(buf))
	}

	return buf, nil
}

// WriteMemory writes data to the process memory at the specified address using process_vm_writev.
// The target region must be mapped writable.
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	pid := p.pid
	readable := p.regionInternal(addr, false)
	writable := p.regionInternal(addr, true)
	p.mu.Unlock()

	if pid == 0 {
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

	// Copy so the caller may reuse data while the syscall runs
	buf := make([]byte, len(data))
	copy(buf, data)

	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMWritev(int(pid), local, remote, 0)
	if err != nil {
		return fmt.Errorf("process_vm_writev at %s: %w", addr.ToString(), err)
	}
	if n != len(buf) {
		return fmt.Errorf("process_vm_writev at %s: only wrote %d of %d bytes", addr.ToString(), n, len(buf))
	}

	return nil
}
