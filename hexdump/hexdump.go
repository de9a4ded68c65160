// Package hexdump renders memory as the classic offset / hex / ASCII listing, optionally
// coloured and annotated with values that point into mapped memory.
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode"

	"h3mem/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Options controls the layout of a dump
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// Start is the address printed for the first byte
	Start uint64

	// Color enables ANSI colours
	Color bool

	// PointerSize is 4 or 8 to show aligned values that land inside MemoryMap; 0 disables it
	PointerSize int

	// MemoryMap is the memory map used for pointer validation
	MemoryMap []memory_map.MemoryMapItem
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{BytesPerLine: 16}
}

// Dump is a plain 16 bytes per line dump starting at base.
func Dump(data []byte, base uint64) string {
	opts := DefaultOptions()
	opts.Start = base
	return DumpWithOptions(data, opts)
}

func DumpWithOptions(data []byte, opts Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, opts)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(w io.Writer, data []byte, opts Options) {
	if opts.BytesPerLine <= 0 {
		opts.BytesPerLine = 16
	}
	for offset := 0; offset < len(data); offset += opts.BytesPerLine {
		end := min(offset+opts.BytesPerLine, len(data))
		formatLine(w, data[offset:end], opts.Start+uint64(offset), opts)
	}
}

func (o Options) paint(color coloransi.ColorCode, s string) string {
	if !o.Color {
		return s
	}
	return coloransi.Foreground(color, s)
}

// hexWidth is the printed width of a full line's hex column.
func hexWidth(bytesPerLine int) int {
	width := bytesPerLine*3 - 1
	if bytesPerLine >= 8 {
		width += 2
	}
	return width
}

func formatLine(w io.Writer, data []byte, addr uint64, opts Options) {
	fmt.Fprint(w, opts.paint(coloransi.Cyan, fmt.Sprintf("%08x", addr)), "  ")

	half := opts.BytesPerLine / 2
	split := opts.BytesPerLine >= 8 && len(data) > half

	hex := make([]string, len(data))
	printed := 0
	for i, b := range data {
		color := coloransi.Green
		if b == 0 {
			color = coloransi.BrightBlack
		}
		hex[i] = opts.paint(color, fmt.Sprintf("%02x", b))
	}
	if split {
		fmt.Fprint(w, strings.Join(hex[:half], " "), " | ", strings.Join(hex[half:], " "))
		printed = len(data)*3 - 1 + 2
	} else {
		fmt.Fprint(w, strings.Join(hex, " "))
		printed = max(len(data)*3-1, 0)
	}
	if pad := hexWidth(opts.BytesPerLine) - printed; pad > 0 {
		fmt.Fprint(w, strings.Repeat(" ", pad))
	}

	fmt.Fprint(w, " | ")
	if split {
		formatASCII(w, data[:half], opts)
		fmt.Fprint(w, " ")
		formatASCII(w, data[half:], opts)
	} else {
		formatASCII(w, data, opts)
	}

	if ptrs := pointers(data, addr, opts); len(ptrs) > 0 {
		fmt.Fprint(w, " | ", opts.paint(coloransi.Yellow, strings.Join(ptrs, " ")))
	}
	fmt.Fprintln(w)
}

func formatASCII(w io.Writer, data []byte, opts Options) {
	for _, b := range data {
		c := rune(b)
		switch {
		case b == 0:
			fmt.Fprint(w, opts.paint(coloransi.BrightBlack, "."))
		case b >= 0x80 || !unicode.IsPrint(c):
			fmt.Fprint(w, opts.paint(coloransi.Red, "."))
		default:
			fmt.Fprint(w, opts.paint(coloransi.White, string(c)))
		}
	}
}

// pointers lists the aligned values of the line that fall inside a mapped region.
func pointers(data []byte, addr uint64, opts Options) []string {
	size := opts.PointerSize
	if (size != 4 && size != 8) || len(opts.MemoryMap) == 0 {
		return nil
	}

	var out []string
	for i := 0; i+size <= len(data); i += size {
		if (addr+uint64(i))%uint64(size) != 0 {
			continue
		}
		var ptr uint64
		if size == 4 {
			ptr = uint64(binary.LittleEndian.Uint32(data[i:]))
		} else {
			ptr = binary.LittleEndian.Uint64(data[i:])
		}
		if ptr != 0 && memory_map.FindRegion(ptr, opts.MemoryMap) != nil {
			out = append(out, fmt.Sprintf("0x%x", ptr))
		}
	}
	return out
}
