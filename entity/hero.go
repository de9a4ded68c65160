// Package entity gives typed views over records of the target process: the player and
// the hero it currently controls. Values are cached per refresh; nothing refreshes on its own.
package entity

import (
	"fmt"

	"h3mem/layout"
	"h3mem/process"
)

// HeroAddress computes the base of hero slot index in the hero array.
func HeroAddress(arrayBase process.ProcessMemoryAddress, index int, stride int64) process.ProcessMemoryAddress {
	return arrayBase.Add(int64(index) * stride)
}

// Hero is one slot of the hero array. It is rebuilt on every player refresh rather than
// updated in place, since the slot a player points at can change.
type Hero struct {
	mem    process.Memory
	layout *layout.Layout
	index  int
	base   process.ProcessMemoryAddress
	values Snapshot
}

// NewHero does no reads; call Refresh before Get.
func NewHero(mem process.Memory, l *layout.Layout, index int, arrayBase process.ProcessMemoryAddress) *Hero {
	return &Hero{
		mem:    mem,
		layout: l,
		index:  index,
		base:   HeroAddress(arrayBase, index, l.HeroRecordSize),
	}
}

func (h *Hero) Index() int                         { return h.index }
func (h *Hero) Base() process.ProcessMemoryAddress { return h.base }

// Refresh re-reads every hero field. The cache is only replaced when all reads succeed.
func (h *Hero) Refresh() (Snapshot, error) {
	snap, err := readAll(h.mem, h.base, h.layout.Hero)
	if err != nil {
		return nil, fmt.Errorf("hero %d: %w", h.index, err)
	}
	h.values = snap
	return snap.clone(), nil
}

// Snapshot returns a copy of the cached values, or nil before the first refresh.
func (h *Hero) Snapshot() Snapshot {
	return h.values.clone()
}

func (h *Hero) Get(name string) (Value, error) {
	f, err := h.layout.FieldSpec(layout.EntityHero, name)
	if err != nil {
		return Value{}, err
	}
	if h.values == nil {
		return Value{}, fmt.Errorf("hero %d: %w", h.index, ErrEntityUninitialized)
	}
	v, _ := h.values.Lookup(f.Name)
	return v, nil
}

// Set writes one field and updates the cache without re-reading it.
func (h *Hero) Set(name string, value int64) error {
	f, err := h.layout.FieldSpec(layout.EntityHero, name)
	if err != nil {
		return err
	}
	if err := checkWrite(layout.EntityHero, f, value); err != nil {
		return err
	}
	if err := writeField(h.mem, h.base, f, value); err != nil {
		return fmt.Errorf("hero %d: %w", h.index, err)
	}
	h.values.store(f.Name, Value{Encoding: f.Encoding, Int: value})
	return nil
}

func (h *Hero) SetXP(xp int32) error {
	return h.Set("xp", int64(xp))
}

func (h *Hero) SetLevel(level int16) error {
	return h.Set("level", int64(level))
}

func (h *Hero) SetMovementLimit(limit int32) error {
	return h.Set("movementLimit", int64(limit))
}
