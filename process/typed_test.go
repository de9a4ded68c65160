package process_test

import (
	"errors"
	"testing"

	"h3mem/process"
	"h3mem/process_blob"
)

func newMemory(t *testing.T) *process_blob.Memory {
	t.Helper()
	m := process_blob.NewMemory()
	if err := m.Map(0x10000000, 0x100, "rw-p", ""); err != nil {
		t.Fatalf("map: %v", err)
	}
	return m
}

func TestIntegerRoundTrip(t *testing.T) {
	m := newMemory(t)

	if err := process.WriteINT32(m, 0x10000010, -123456); err != nil {
		t.Fatalf("WriteINT32: %v", err)
	}
	if v, err := process.ReadINT32(m, 0x10000010); err != nil || v != -123456 {
		t.Fatalf("ReadINT32 = %d, %v", v, err)
	}

	if err := process.WriteINT16(m, 0x10000020, -2); err != nil {
		t.Fatalf("WriteINT16: %v", err)
	}
	raw, _ := m.ReadMemory(0x10000020, 2)
	if raw[0] != 0xfe || raw[1] != 0xff {
		t.Fatalf("int16 not little-endian: % x", raw)
	}
	if v, err := process.ReadINT16(m, 0x10000020); err != nil || v != -2 {
		t.Fatalf("ReadINT16 = %d, %v", v, err)
	}
}

func TestReadPOINTER(t *testing.T) {
	m := newMemory(t)
	if err := m.Store(0x10000000, []byte{0x78, 0x56, 0x34, 0x12, 0xef, 0xbe, 0xad, 0xde}); err != nil {
		t.Fatalf("store: %v", err)
	}

	p32, err := process.ReadPOINTER(m, 0x10000000, 4)
	if err != nil || p32 != 0x12345678 {
		t.Fatalf("4-byte pointer = %s, %v", p32, err)
	}
	p64, err := process.ReadPOINTER(m, 0x10000000, 8)
	if err != nil || p64 != 0xdeadbeef12345678 {
		t.Fatalf("8-byte pointer = %s, %v", p64, err)
	}
	if _, err := process.ReadPOINTER(m, 0x10000000, 2); !errors.Is(err, process.ErrInvalidPointer) {
		t.Fatalf("expected ErrInvalidPointer, got %v", err)
	}
}

func TestReadNTS(t *testing.T) {
	m := newMemory(t)
	if err := m.Store(0x10000040, []byte("Orrin\x00junk")); err != nil {
		t.Fatalf("store: %v", err)
	}

	if s, err := process.ReadNTS(m, 0x10000040, 13); err != nil || s != "Orrin" {
		t.Fatalf("ReadNTS = %q, %v", s, err)
	}
	if s, err := process.ReadNTS(m, 0x10000040, 3); err != nil || s != "Orr" {
		t.Fatalf("unterminated ReadNTS = %q, %v", s, err)
	}
	if s, err := process.ReadNTS(m, 0x10000040, 0); err != nil || s != "" {
		t.Fatalf("zero-length ReadNTS = %q, %v", s, err)
	}
}

func TestUnmappedFails(t *testing.T) {
	m := newMemory(t)
	if _, err := process.ReadINT32(m, 0x20000000); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("expected ErrAddressNotMapped, got %v", err)
	}
	if err := process.WriteINT16(m, 0x20000000, 1); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("expected ErrAddressNotMapped, got %v", err)
	}
}

func TestAddressAdd(t *testing.T) {
	if got := process.ProcessMemoryAddress(0x1000).Add(-0x10); got != 0xff0 {
		t.Fatalf("Add(-0x10) = %s", got)
	}
	if got := process.ProcessMemoryAddress(0x1000).ToString(); got != "0x1000" {
		t.Fatalf("ToString = %s", got)
	}
}
