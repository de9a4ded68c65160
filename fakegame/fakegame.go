// Package fakegame builds a synthetic game image in a process_blob.Memory: the module
// image, the pointer slots a layout's chains go through, and the records they end at.
// It backs the tests and the --demo target of h3cheat.
package fakegame

import (
	"encoding/binary"
	"fmt"

	"h3mem/chain"
	"h3mem/layout"
	"h3mem/process"
	"h3mem/process_blob"
)

const (
	ImageBase process.ProcessMemoryAddress = 0x400000
	HeapBase  process.ProcessMemoryAddress = 0x1000000

	pageSize = 0x1000
	heapGap  = 0x10000
)

// Game is a fake target process. Setters use Store, so they never count as writes.
type Game struct {
	*process_blob.Memory
	Layout *layout.Layout

	player    process.ProcessMemoryAddress
	heroArray process.ProcessMemoryAddress
	next      process.ProcessMemoryAddress
}

// New maps an empty world: zeroed records, hero index 0.
func New(l *layout.Layout) (*Game, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	g := &Game{
		Memory: process_blob.NewMemory(),
		Layout: l,
		next:   HeapBase,
	}
	g.Memory.Name = l.ProcessName

	imageSize := int64(pageSize)
	for _, spec := range []chain.Spec{l.PlayerChain, l.HeroArrayChain} {
		end, err := prefixEnd(spec, int64(l.PointerSize))
		if err != nil {
			return nil, err
		}
		if end > imageSize {
			imageSize = end
		}
	}
	if err := g.Memory.Map(ImageBase, roundPage(imageSize), "rw-p", `C:\Games\Heroes3\`+l.ProcessName); err != nil {
		return nil, err
	}

	var err error
	if g.player, err = g.plant(l.PlayerChain, int64(l.RecordSize(layout.EntityPlayer))); err != nil {
		return nil, fmt.Errorf("player chain: %w", err)
	}
	if g.heroArray, err = g.plant(l.HeroArrayChain, l.HeroRecordSize*int64(l.HeroCount)); err != nil {
		return nil, fmt.Errorf("hero array chain: %w", err)
	}
	return g, nil
}

// NewDemo is New with a plausible mid-campaign state.
func NewDemo(l *layout.Layout) (*Game, error) {
	g, err := New(l)
	if err != nil {
		return nil, err
	}

	resources := map[string]int64{
		"wood": 20, "mercury": 10, "ore": 20, "sulfur": 10, "crystal": 10, "gem": 10, "gold": 30000,
	}
	for name, v := range resources {
		if _, err := l.FieldSpec(layout.EntityPlayer, name); err != nil {
			continue
		}
		if err := g.SetPlayerField(name, v); err != nil {
			return nil, err
		}
	}

	hero := map[string]int64{
		"x": 12, "y": 34, "nextX": 13, "nextY": 34, "movementLimit": 1500, "xp": 1340, "level": 4,
	}
	for name, v := range hero {
		if _, err := l.FieldSpec(layout.EntityHero, name); err != nil {
			continue
		}
		if err := g.SetHeroField(3, name, v); err != nil {
			return nil, err
		}
	}
	if _, err := l.FieldSpec(layout.EntityHero, "name"); err == nil {
		if err := g.SetHeroName(3, "Orrin"); err != nil {
			return nil, err
		}
	}
	if err := g.SetHeroIndex(3); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) PlayerBase() process.ProcessMemoryAddress { return g.player }
func (g *Game) HeroArray() process.ProcessMemoryAddress  { return g.heroArray }

func (g *Game) HeroBase(index int) process.ProcessMemoryAddress {
	return g.heroArray.Add(int64(index) * g.Layout.HeroRecordSize)
}

// SetHeroIndex selects the current hero. Negative values mean no hero.
func (g *Game) SetHeroIndex(index int32) error {
	return g.put(g.player.Add(g.Layout.HeroIndexOffset), layout.Int32, int64(index))
}

func (g *Game) SetPlayerField(name string, value int64) error {
	f, err := g.Layout.FieldSpec(layout.EntityPlayer, name)
	if err != nil {
		return err
	}
	return g.put(g.player.Add(f.Offset), f.Encoding, value)
}

func (g *Game) SetHeroField(index int, name string, value int64) error {
	f, err := g.Layout.FieldSpec(layout.EntityHero, name)
	if err != nil {
		return err
	}
	return g.put(g.HeroBase(index).Add(f.Offset), f.Encoding, value)
}

// SetHeroName stores a NUL-terminated name, truncated to the field's length.
func (g *Game) SetHeroName(index int, name string) error {
	f, err := g.Layout.FieldSpec(layout.EntityHero, "name")
	if err != nil {
		return err
	}
	buf := make([]byte, f.MaxLen)
	copy(buf[:len(buf)-1], name)
	return g.Store(g.HeroBase(index).Add(f.Offset), buf)
}

// BreakPlayerChain zeroes the first pointer the player chain dereferences, as the game
// does outside of a running scenario.
func (g *Game) BreakPlayerChain() error {
	at := ImageBase
	for _, step := range g.Layout.PlayerChain {
		if step.Kind == chain.KindDeref {
			return g.Store(at, make([]byte, g.Layout.PointerSize))
		}
		at = at.Add(step.Offset)
	}
	return fmt.Errorf("player chain has no dereference")
}

func (g *Game) put(addr process.ProcessMemoryAddress, enc layout.Encoding, value int64) error {
	switch enc {
	case layout.Int16:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(value))
		return g.Store(addr, buf)
	case layout.Int32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(value))
		return g.Store(addr, buf)
	}
	return fmt.Errorf("%w: %v", layout.ErrBadEncoding, enc)
}

func (g *Game) putPointer(at, target process.ProcessMemoryAddress) error {
	buf := make([]byte, g.Layout.PointerSize)
	if g.Layout.PointerSize == 8 {
		binary.LittleEndian.PutUint64(buf, uint64(target))
	} else {
		binary.LittleEndian.PutUint32(buf, uint32(target))
	}
	return g.Store(at, buf)
}

// plant walks spec from ImageBase. Every dereference gets a fresh heap block large enough
// for the offsets that follow it, and the pointer to that block is stored in place.
func (g *Game) plant(spec chain.Spec, recordSize int64) (process.ProcessMemoryAddress, error) {
	current := ImageBase
	for i, step := range spec {
		if step.Kind == chain.KindAdd {
			current = current.Add(step.Offset)
			continue
		}

		span, err := blockSpan(spec[i+1:], recordSize, int64(g.Layout.PointerSize))
		if err != nil {
			return 0, err
		}
		block := g.next
		if err := g.Memory.Map(block, roundPage(span), "rw-p", ""); err != nil {
			return 0, err
		}
		g.next = block.Add(int64(roundPage(span)) + heapGap)

		if err := g.putPointer(current, block); err != nil {
			return 0, err
		}
		current = block
	}
	return current, nil
}

// prefixEnd is how much of the image the steps before the first dereference touch.
func prefixEnd(spec chain.Spec, ptrSize int64) (int64, error) {
	var offset int64
	for _, step := range spec {
		if step.Kind == chain.KindDeref {
			break
		}
		offset += step.Offset
		if offset < 0 {
			return 0, fmt.Errorf("chain %s steps below the image base", spec)
		}
	}
	return offset + ptrSize, nil
}

// blockSpan sizes the block a dereference lands in: the adds up to the next dereference,
// plus a pointer slot, or the record when the chain ends.
func blockSpan(rest chain.Spec, recordSize, ptrSize int64) (int64, error) {
	var offset int64
	for _, step := range rest {
		if step.Kind == chain.KindDeref {
			return offset + ptrSize, nil
		}
		offset += step.Offset
		if offset < 0 {
			return 0, fmt.Errorf("negative offset inside a block is not supported")
		}
	}
	return offset + recordSize, nil
}

func roundPage(n int64) process.ProcessMemorySize {
	if n <= 0 {
		n = 1
	}
	return process.ProcessMemorySize((n + pageSize - 1) &^ (pageSize - 1))
}
