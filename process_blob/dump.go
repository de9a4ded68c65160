package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"h3mem/process"
	"h3mem/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	metadataFile  = "metadata.json"
	memoryMapFile = "memory_map.json"

	// DefaultMaxRegion skips huge mappings (graphics buffers, file caches) when capturing
	DefaultMaxRegion = process.ProcessMemorySize(64 * 1024 * 1024)
)

type metadata struct {
	PID        process.ProcessID `json:"pid"`
	Name       string            `json:"name"`
	CapturedAt time.Time         `json:"captured_at"`
}

func regionFile(address uint64) string {
	return fmt.Sprintf("region_0x%x.bin", address)
}

// CaptureStats summarises a Capture run.
type CaptureStats struct {
	Saved       int
	SkippedPerm int
	SkippedSize int
	ReadErrors  int
}

// Capture copies every readable region of proc up to maxRegion bytes into a new Memory.
// Regions that fail to read (guard pages, races with munmap) are skipped.
func Capture(proc process.Process, name string, maxRegion process.ProcessMemorySize) (*Memory, CaptureStats, error) {
	var stats CaptureStats
	log := logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "capture"))

	if maxRegion == 0 {
		maxRegion = DefaultMaxRegion
	}

	if err := proc.UpdateMemoryMap(); err != nil {
		return nil, stats, fmt.Errorf("failed to update memory map: %w", err)
	}
	mm, err := proc.GetMemoryMap()
	if err != nil {
		return nil, stats, err
	}

	out := NewMemory()
	out.PID = proc.GetPID()
	out.Name = name

	for _, region := range mm {
		if !region.IsReadable() {
			stats.SkippedPerm++
			continue
		}
		if process.ProcessMemorySize(region.Size) > maxRegion {
			log.Infoln("Skipping large region at", fmt.Sprintf("%x", region.Address), "size", region.Size)
			stats.SkippedSize++
			continue
		}

		data, err := proc.ReadMemory(process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", region.Address), err)
			stats.ReadErrors++
			continue
		}

		if err := out.mapData(region, data); err != nil {
			return nil, stats, err
		}
		stats.Saved++
	}

	log.Infoln("Capture complete:", stats.Saved, "regions,", stats.ReadErrors, "read errors")
	return out, stats, nil
}

// Save writes the metadata, memory map and one file per region to dirname
func (m *Memory) Save(dirname string) error {
	if err := os.MkdirAll(dirname, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	meta, err := json.MarshalIndent(metadata{PID: m.PID, Name: m.Name, CapturedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, metadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	mmJSON, err := json.MarshalIndent(m.mm, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, memoryMapFile), mmJSON, 0o644); err != nil {
		return fmt.Errorf("failed to write memory map file: %w", err)
	}

	for _, region := range m.mm {
		if err := os.WriteFile(filepath.Join(dirname, regionFile(region.Address)), m.blobs[region.Address], 0o644); err != nil {
			return fmt.Errorf("failed to write region 0x%x: %w", region.Address, err)
		}
	}
	return nil
}

// Load reads a directory written by Save
func Load(dirname string) (*Memory, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	mmBytes, err := os.ReadFile(filepath.Join(dirname, memoryMapFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}
	var mm []memory_map.MemoryMapItem
	if err := json.Unmarshal(mmBytes, &mm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory map: %w", err)
	}

	out := NewMemory()
	out.PID = meta.PID
	out.Name = meta.Name

	for _, region := range mm {
		data, err := os.ReadFile(filepath.Join(dirname, regionFile(region.Address)))
		if err != nil {
			return nil, fmt.Errorf("failed to read region 0x%x: %w", region.Address, err)
		}
		if err := out.mapData(region, data); err != nil {
			return nil, err
		}
	}
	return out, nil
}
