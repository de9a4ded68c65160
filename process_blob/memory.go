// Package process_blob implements process.Process over memory held in this process:
// regions mapped by hand, or loaded from a capture of a live process.
package process_blob

import (
	"errors"
	"fmt"
	"sync"

	"h3mem/process"
	"h3mem/process/memory_map"
)

// Memory is a sparse address space. Each mapped region owns its bytes.
type Memory struct {
	PID  process.ProcessID
	Name string

	mu     sync.Mutex
	mm     []memory_map.MemoryMapItem // sorted by address
	blobs  map[uint64][]byte          // region address -> data
	writes int
}

var _ process.Process = (*Memory)(nil)

// NewMemory creates an empty address space
func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[uint64][]byte),
	}
}

// Map adds a zero-filled region. Regions may not overlap.
func (m *Memory) Map(addr process.ProcessMemoryAddress, size process.ProcessMemorySize, perms, path string) error {
	return m.mapData(memory_map.MemoryMapItem{
		Address: uint64(addr),
		Size:    uint(size),
		Perms:   perms,
		Path:    path,
	}, make([]byte, size))
}

func (m *Memory) mapData(item memory_map.MemoryMapItem, data []byte) error {
	if item.Size == 0 {
		return errors.New("map: empty region")
	}
	if len(data) != int(item.Size) {
		return fmt.Errorf("map: region 0x%x has %d bytes of data, want %d", item.Address, len(data), item.Size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.mm {
		if item.Address < existing.End() && existing.Address < item.End() {
			return fmt.Errorf("map: region 0x%x overlaps 0x%x", item.Address, existing.Address)
		}
	}

	if m.blobs == nil {
		m.blobs = make(map[uint64][]byte)
	}
	m.mm = append(m.mm, item)
	memory_map.Sort(m.mm)
	m.blobs[item.Address] = data
	return nil
}

// Store copies data into mapped memory ignoring permissions; it does not count as a write.
func (m *Memory) Store(addr process.ProcessMemoryAddress, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dst, err := m.sliceInternal(addr, process.ProcessMemorySize(len(data)), false)
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// Writes returns how many successful WriteMemory calls were made.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// sliceInternal returns the backing bytes for [addr, addr+size). Callers hold m.mu.
func (m *Memory) sliceInternal(addr process.ProcessMemoryAddress, size process.ProcessMemorySize, writable bool) ([]byte, error) {
	region := memory_map.FindRegion(uint64(addr), m.mm)
	if region == nil || !region.IsReadable() {
		return nil, fmt.Errorf("access %s: %w", addr.ToString(), process.ErrAddressNotMapped)
	}
	if uint64(addr)+uint64(size) > region.End() {
		return nil, fmt.Errorf("access %s+%d crosses region end 0x%x: %w", addr.ToString(), size, region.End(), process.ErrAddressNotMapped)
	}
	if writable && !region.IsWritable() {
		return nil, fmt.Errorf("write %s: %w", addr.ToString(), process.ErrAddressNotWritable)
	}

	data := m.blobs[region.Address]
	offset := uint64(addr) - region.Address
	return data[offset : offset+uint64(size)], nil
}

func (m *Memory) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := m.sliceInternal(addr, size, false)
	if err != nil {
		return nil, err
	}
	result := make([]byte, len(src))
	copy(result, src)
	return result, nil
}

func (m *Memory) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dst, err := m.sliceInternal(addr, process.ProcessMemorySize(len(data)), true)
	if err != nil {
		return err
	}
	copy(dst, data)
	m.writes++
	return nil
}

func (m *Memory) Open(pid process.ProcessID) error {
	return fmt.Errorf("Open not supported for blob memory, use Load")
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = nil
	m.mm = nil
	return nil
}

func (m *Memory) GetPID() process.ProcessID {
	return m.PID
}

func (m *Memory) UpdateMemoryMap() error {
	return nil // the map only changes through Map
}

func (m *Memory) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	region := memory_map.FindRegion(uint64(addr), m.mm)
	return region != nil && region.IsReadable()
}

func (m *Memory) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]memory_map.MemoryMapItem, len(m.mm))
	copy(result, m.mm)
	return result, nil
}

func (m *Memory) ModuleBase(module string) (process.ProcessMemoryAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base, ok := memory_map.ModuleBase(module, m.mm)
	if !ok {
		return 0, fmt.Errorf("%s: %w", module, process.ErrModuleNotFound)
	}
	return process.ProcessMemoryAddress(base), nil
}
