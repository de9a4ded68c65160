package process_blob

import (
	"bytes"
	"errors"
	"testing"

	"h3mem/process"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	if err := m.Map(0x400000, 0x1000, "r-xp", `C:\Games\HEROES3.EXE`); err != nil {
		t.Fatalf("map text: %v", err)
	}
	if err := m.Map(0x690000, 0x1000, "rw-p", `C:\Games\HEROES3.EXE`); err != nil {
		t.Fatalf("map data: %v", err)
	}
	return m
}

func TestMapRejectsOverlap(t *testing.T) {
	m := newTestMemory(t)
	if err := m.Map(0x400800, 0x1000, "rw-p", ""); err == nil {
		t.Fatalf("expected overlap error")
	}
}

func TestReadWrite(t *testing.T) {
	m := newTestMemory(t)

	if err := m.WriteMemory(0x690010, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}
	got, err := m.ReadMemory(0x690010, 4)
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("read back %v", got)
	}
	if m.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", m.Writes())
	}

	if err := m.WriteMemory(0x400000, []byte{0}); !errors.Is(err, process.ErrAddressNotWritable) {
		t.Fatalf("expected ErrAddressNotWritable, got %v", err)
	}
	if _, err := m.ReadMemory(0x500000, 1); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("expected ErrAddressNotMapped, got %v", err)
	}
	if _, err := m.ReadMemory(0x690ffe, 4); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("read across region end should fail, got %v", err)
	}
	if m.Writes() != 1 {
		t.Fatalf("failed writes must not count, got %d", m.Writes())
	}
}

func TestStoreIgnoresPermissions(t *testing.T) {
	m := newTestMemory(t)
	if err := m.Store(0x400010, []byte{0xaa}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, _ := m.ReadMemory(0x400010, 1)
	if got[0] != 0xaa || m.Writes() != 0 {
		t.Fatalf("Store did not land or counted as a write")
	}
}

func TestModuleBase(t *testing.T) {
	m := newTestMemory(t)
	base, err := m.ModuleBase("heroes3.exe")
	if err != nil || base != 0x400000 {
		t.Fatalf("ModuleBase = %s, %v", base, err)
	}
	if _, err := m.ModuleBase("smackw32.dll"); !errors.Is(err, process.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestSaveLoadAndCapture(t *testing.T) {
	m := newTestMemory(t)
	m.PID = 77
	m.Name = "HEROES3.EXE"
	if err := m.Store(0x690100, []byte("Gelu\x00")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	dir := t.TempDir()
	if err := m.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PID != 77 || loaded.Name != "HEROES3.EXE" {
		t.Fatalf("metadata not restored: %d %q", loaded.PID, loaded.Name)
	}
	name, err := process.ReadNTS(loaded, 0x690100, 16)
	if err != nil || name != "Gelu" {
		t.Fatalf("ReadNTS after load = %q, %v", name, err)
	}

	captured, stats, err := Capture(loaded, "copy", 0)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if stats.Saved != 2 {
		t.Fatalf("expected 2 captured regions, got %+v", stats)
	}
	if !captured.IsValidAddress(0x690100) || captured.GetPID() != 77 {
		t.Fatalf("capture lost region or pid")
	}

	small, stats, err := Capture(loaded, "small", 0x100)
	if err != nil {
		t.Fatalf("Capture small: %v", err)
	}
	if stats.SkippedSize != 2 || small.IsValidAddress(0x690100) {
		t.Fatalf("size limit not applied: %+v", stats)
	}
}
