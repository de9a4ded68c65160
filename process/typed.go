package process

import (
	"encoding/binary"
	"fmt"
)

// The target is little-endian (x86 / x86-64); every codec here assumes it.

// ReadINT16 reads a signed 16-bit integer from the specified address
func ReadINT16(mem Memory, addr ProcessMemoryAddress) (int16, error) {
	data, err := readExact(mem, addr, 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(data)), nil
}

// ReadINT32 reads a signed 32-bit integer from the specified address
func ReadINT32(mem Memory, addr ProcessMemoryAddress) (int32, error) {
	data, err := readExact(mem, addr, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(data)), nil
}

// ReadNTS reads a null-terminated string from the specified address with a maximum length.
// If no terminator is found within maxLength bytes the whole buffer is returned.
func ReadNTS(mem Memory, addr ProcessMemoryAddress, maxLength ProcessMemorySize) (string, error) {
	if maxLength == 0 {
		return "", nil
	}

	data, err := readExact(mem, addr, maxLength)
	if err != nil {
		return "", err
	}

	for i, b := range data {
		if b == 0 {
			return string(data[:i]), nil
		}
	}
	return string(data), nil
}

// ReadPOINTER reads a pointer of the given width (4 or 8 bytes) from the specified address
func ReadPOINTER(mem Memory, addr ProcessMemoryAddress, width ProcessMemorySize) (ProcessMemoryAddress, error) {
	switch width {
	case 4:
		data, err := readExact(mem, addr, 4)
		if err != nil {
			return 0, err
		}
		return ProcessMemoryAddress(binary.LittleEndian.Uint32(data)), nil
	case 8:
		data, err := readExact(mem, addr, 8)
		if err != nil {
			return 0, err
		}
		return ProcessMemoryAddress(binary.LittleEndian.Uint64(data)), nil
	default:
		return 0, fmt.Errorf("pointer width %d: %w", width, ErrInvalidPointer)
	}
}

// WriteINT16 writes a signed 16-bit integer to the specified address
func WriteINT16(mem Memory, addr ProcessMemoryAddress, value int16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(value))
	return mem.WriteMemory(addr, buf)
}

// WriteINT32 writes a signed 32-bit integer to the specified address
func WriteINT32(mem Memory, addr ProcessMemoryAddress, value int32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(value))
	return mem.WriteMemory(addr, buf)
}

func readExact(mem Memory, addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	data, err := mem.ReadMemory(addr, size)
	if err != nil {
		return nil, err
	}
	if len(data) < int(size) {
		return nil, fmt.Errorf("short read at %s: %d of %d bytes", addr.ToString(), len(data), size)
	}
	return data, nil
}
