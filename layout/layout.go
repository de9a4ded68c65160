// Package layout describes where entity fields live in the target process. A Layout is a
// versioned table: offsets, encodings and pointer chains for one build of the game.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"h3mem/chain"
	"h3mem/process"
)

var (
	ErrUnknownField     = errors.New("unknown field")
	ErrUnknownLayout    = errors.New("unknown layout version")
	ErrInvalidLayout    = errors.New("invalid layout")
	ErrUnknownEntity    = errors.New("unknown entity type")
	ErrBadEncoding      = errors.New("unknown field encoding")
	ErrDuplicateVersion = errors.New("layout version already registered")
)

// Entity names a kind of record in the target process.
type Entity string

const (
	EntityPlayer Entity = "player"
	EntityHero   Entity = "hero"
)

// Encoding is how a field's bytes are interpreted. All integers are little-endian.
type Encoding uint8

const (
	Int16 Encoding = iota + 1
	Int32
	CString
)

var encodingNames = map[Encoding]string{
	Int16:   "int16",
	Int32:   "int32",
	CString: "cstring",
}

func (e Encoding) String() string {
	if name, ok := encodingNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// ParseEncoding accepts the String form, case-insensitively.
func ParseEncoding(text string) (Encoding, error) {
	for enc, name := range encodingNames {
		if strings.EqualFold(text, name) {
			return enc, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadEncoding, text)
}

// IsInteger reports whether values of this encoding are numbers.
func (e Encoding) IsInteger() bool {
	return e == Int16 || e == Int32
}

// Range returns the inclusive bounds of an integer encoding. ok is false for strings.
func (e Encoding) Range() (min, max int64, ok bool) {
	switch e {
	case Int16:
		return math.MinInt16, math.MaxInt16, true
	case Int32:
		return math.MinInt32, math.MaxInt32, true
	}
	return 0, 0, false
}

// FieldSpec is one named value inside an entity record.
type FieldSpec struct {
	Name     string                    `yaml:"name"`
	Offset   int64                     `yaml:"offset"`
	Encoding Encoding                  `yaml:"encoding"`
	Writable bool                      `yaml:"writable,omitempty"`
	MaxLen   process.ProcessMemorySize `yaml:"max_len,omitempty"` // CString only
}

// Size is the number of bytes the field occupies.
func (f FieldSpec) Size() process.ProcessMemorySize {
	switch f.Encoding {
	case Int16:
		return 2
	case Int32:
		return 4
	case CString:
		return f.MaxLen
	}
	return 0
}

// UnknownFieldError is returned for names a layout does not define.
type UnknownFieldError struct {
	Entity Entity
	Name   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%v: %s %q", ErrUnknownField, e.Entity, e.Name)
}

func (e *UnknownFieldError) Unwrap() error {
	return ErrUnknownField
}

// Layout is treated as immutable once registered or loaded.
type Layout struct {
	Version     string                    `yaml:"version"`
	ProcessName string                    `yaml:"process"`
	PointerSize process.ProcessMemorySize `yaml:"pointer_size"`

	// PlayerChain leads from the module base to the player record.
	PlayerChain chain.Spec `yaml:"player_chain"`
	// HeroArrayChain leads from the module base to hero slot 0.
	HeroArrayChain chain.Spec `yaml:"hero_array_chain"`

	HeroIndexOffset int64 `yaml:"hero_index_offset"` // Int32 inside the player record
	HeroRecordSize  int64 `yaml:"hero_record_size"`
	HeroCount       int   `yaml:"hero_count"`

	Player []FieldSpec `yaml:"player"`
	Hero   []FieldSpec `yaml:"hero"`

	// Aliases maps player-level names to hero fields.
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

func (l *Layout) table(entity Entity) ([]FieldSpec, error) {
	switch entity {
	case EntityPlayer:
		return l.Player, nil
	case EntityHero:
		return l.Hero, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

// FieldsOf returns a copy of an entity's fields in table order.
func (l *Layout) FieldsOf(entity Entity) []FieldSpec {
	fields, err := l.table(entity)
	if err != nil {
		return nil
	}
	out := make([]FieldSpec, len(fields))
	copy(out, fields)
	return out
}

// FieldSpec finds a field by name, ignoring case.
func (l *Layout) FieldSpec(entity Entity, name string) (FieldSpec, error) {
	fields, err := l.table(entity)
	if err != nil {
		return FieldSpec{}, err
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return FieldSpec{}, &UnknownFieldError{Entity: entity, Name: name}
}

// Alias returns the hero field a player-level name stands for.
func (l *Layout) Alias(name string) (string, bool) {
	for alias, field := range l.Aliases {
		if strings.EqualFold(alias, name) {
			return field, true
		}
	}
	return "", false
}

// RecordSize is the span of bytes covering every field of the entity. For heroes it is
// the array stride.
func (l *Layout) RecordSize(entity Entity) process.ProcessMemorySize {
	if entity == EntityHero {
		return process.ProcessMemorySize(l.HeroRecordSize)
	}
	var end int64
	for _, f := range l.FieldsOf(entity) {
		if e := f.Offset + int64(f.Size()); e > end {
			end = e
		}
	}
	if e := l.HeroIndexOffset + 4; entity == EntityPlayer && e > end {
		end = e
	}
	return process.ProcessMemorySize(end)
}

// Validate checks the table for the mistakes a hand edit tends to make.
func (l *Layout) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidLayout, l.Version, fmt.Sprintf(format, args...))
	}

	if l.Version == "" {
		return fail("missing version")
	}
	if l.ProcessName == "" {
		return fail("missing process name")
	}
	if l.PointerSize != 4 && l.PointerSize != 8 {
		return fail("pointer size %d, want 4 or 8", l.PointerSize)
	}
	if l.HeroRecordSize <= 0 {
		return fail("hero record size %d", l.HeroRecordSize)
	}
	if l.HeroCount <= 0 {
		return fail("hero count %d", l.HeroCount)
	}
	if l.HeroIndexOffset < 0 {
		return fail("hero index offset %d", l.HeroIndexOffset)
	}

	for _, entity := range []Entity{EntityPlayer, EntityHero} {
		seen := map[string]bool{}
		for _, f := range l.FieldsOf(entity) {
			key := strings.ToLower(f.Name)
			switch {
			case f.Name == "":
				return fail("%s field without a name", entity)
			case seen[key]:
				return fail("duplicate %s field %q", entity, f.Name)
			case f.Offset < 0:
				return fail("%s.%s: negative offset", entity, f.Name)
			case f.Encoding != Int16 && f.Encoding != Int32 && f.Encoding != CString:
				return fail("%s.%s: %v", entity, f.Name, f.Encoding)
			case f.Encoding == CString && f.MaxLen == 0:
				return fail("%s.%s: cstring needs max_len", entity, f.Name)
			case f.Encoding == CString && f.Writable:
				return fail("%s.%s: cstring fields cannot be writable", entity, f.Name)
			case entity == EntityHero && f.Offset+int64(f.Size()) > l.HeroRecordSize:
				return fail("hero.%s: ends past the record stride", f.Name)
			}
			seen[key] = true
		}
	}

	for alias, target := range l.Aliases {
		if _, err := l.FieldSpec(EntityHero, target); err != nil {
			return fail("alias %q: %v", alias, err)
		}
		if _, err := l.FieldSpec(EntityPlayer, alias); err == nil {
			return fail("alias %q shadows a player field", alias)
		}
	}
	return nil
}
