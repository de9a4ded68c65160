//go:build linux

package process_linux

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"h3mem/process"
)

func writeFakeProc(t *testing.T, root string, pid, comm string) {
	t.Helper()
	dir := filepath.Join(root, pid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "comm"), []byte(comm+"\n"), 0o644); err != nil {
		t.Fatalf("write comm: %v", err)
	}
}

func TestFindProcessByName(t *testing.T) {
	root := t.TempDir()
	writeFakeProc(t, root, "4242", "HEROES3.EXE")
	writeFakeProc(t, root, "17", "heroes3.exe")
	writeFakeProc(t, root, "99", "bash")
	if err := os.WriteFile(filepath.Join(root, "uptime"), []byte("1 1"), 0o644); err != nil {
		t.Fatalf("write uptime: %v", err)
	}

	finder := &LinuxProcessFinder{Root: root}
	found, err := finder.FindProcessByName("Heroes3.exe")
	if err != nil {
		t.Fatalf("FindProcessByName: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}
	if found[0].PID != 17 || found[1].PID != 4242 {
		t.Fatalf("matches not sorted by PID: %+v", found)
	}
}

func TestFindProcessByPIDMissing(t *testing.T) {
	finder := &LinuxProcessFinder{Root: t.TempDir()}
	_, err := finder.FindProcessByPID(12345)
	if !errors.Is(err, process.ErrProcessUnavailable) {
		t.Fatalf("expected ErrProcessUnavailable, got %v", err)
	}
}

func TestOpenProcessByNameUnavailable(t *testing.T) {
	helper := &LinuxProcessHelper{Finder: &LinuxProcessFinder{Root: t.TempDir()}}
	proc, err := helper.OpenProcessByName("HEROES3.EXE")
	if proc != nil {
		t.Fatalf("expected nil process")
	}
	if !errors.Is(err, process.ErrProcessUnavailable) {
		t.Fatalf("expected ErrProcessUnavailable, got %v", err)
	}
}

func TestSelfMemoryRoundTrip(t *testing.T) {
	proc, err := NewWithPID(process.ProcessID(os.Getpid()))
	if err != nil {
		t.Skipf("cannot open self: %v", err)
	}
	defer proc.Close()

	if _, err := proc.ReadMemory(0x1000, 4); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("expected ErrAddressNotMapped for low address, got %v", err)
	}
}
