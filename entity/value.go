package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"h3mem/layout"
	"h3mem/process"
)

var (
	// ErrEntityUninitialized means the entity does not currently exist in the game,
	// e.g. no active hero, or it has not been refreshed yet.
	ErrEntityUninitialized = errors.New("entity not initialized")

	ErrReadOnlyField = errors.New("field is read-only")

	// ErrValueOutOfRange is returned before anything is written.
	ErrValueOutOfRange = errors.New("value out of range for field encoding")
)

// ReadOnlyFieldError names the field a write was refused for.
type ReadOnlyFieldError struct {
	Entity layout.Entity
	Name   string
}

func (e *ReadOnlyFieldError) Error() string {
	return fmt.Sprintf("%v: %s.%s", ErrReadOnlyField, e.Entity, e.Name)
}

func (e *ReadOnlyFieldError) Unwrap() error {
	return ErrReadOnlyField
}

// Value is one decoded field. Int is set for integer encodings, Str for strings.
type Value struct {
	Encoding layout.Encoding
	Int      int64
	Str      string
}

func (v Value) String() string {
	if v.Encoding == layout.CString {
		return v.Str
	}
	return strconv.FormatInt(v.Int, 10)
}

// FieldValue pairs a field with the value read for it.
type FieldValue struct {
	Field layout.FieldSpec
	Value Value
}

// Snapshot is the set of values captured by one refresh, in table order.
type Snapshot []FieldValue

// Lookup finds a field by name, ignoring case.
func (s Snapshot) Lookup(name string) (Value, bool) {
	for _, fv := range s {
		if strings.EqualFold(fv.Field.Name, name) {
			return fv.Value, true
		}
	}
	return Value{}, false
}

func (s Snapshot) clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

func (s Snapshot) store(name string, v Value) {
	for i := range s {
		if strings.EqualFold(s[i].Field.Name, name) {
			s[i].Value = v
			return
		}
	}
}

func readField(mem process.Memory, base process.ProcessMemoryAddress, f layout.FieldSpec) (Value, error) {
	addr := base.Add(f.Offset)
	v := Value{Encoding: f.Encoding}

	switch f.Encoding {
	case layout.Int16:
		n, err := process.ReadINT16(mem, addr)
		if err != nil {
			return Value{}, fmt.Errorf("read %s at %s: %w", f.Name, addr.ToString(), err)
		}
		v.Int = int64(n)
	case layout.Int32:
		n, err := process.ReadINT32(mem, addr)
		if err != nil {
			return Value{}, fmt.Errorf("read %s at %s: %w", f.Name, addr.ToString(), err)
		}
		v.Int = int64(n)
	case layout.CString:
		s, err := process.ReadNTS(mem, addr, f.MaxLen)
		if err != nil {
			return Value{}, fmt.Errorf("read %s at %s: %w", f.Name, addr.ToString(), err)
		}
		v.Str = s
	default:
		return Value{}, fmt.Errorf("read %s: %w", f.Name, layout.ErrBadEncoding)
	}
	return v, nil
}

func readAll(mem process.Memory, base process.ProcessMemoryAddress, fields []layout.FieldSpec) (Snapshot, error) {
	snap := make(Snapshot, 0, len(fields))
	for _, f := range fields {
		v, err := readField(mem, base, f)
		if err != nil {
			return nil, err
		}
		snap = append(snap, FieldValue{Field: f, Value: v})
	}
	return snap, nil
}

// checkWrite refuses read-only fields and values the encoding cannot hold.
func checkWrite(entity layout.Entity, f layout.FieldSpec, value int64) error {
	if !f.Writable {
		return &ReadOnlyFieldError{Entity: entity, Name: f.Name}
	}
	min, max, ok := f.Encoding.Range()
	if !ok {
		return &ReadOnlyFieldError{Entity: entity, Name: f.Name}
	}
	if value < min || value > max {
		return fmt.Errorf("%w: %s.%s = %d, want %d..%d", ErrValueOutOfRange, entity, f.Name, value, min, max)
	}
	return nil
}

func writeField(mem process.Memory, base process.ProcessMemoryAddress, f layout.FieldSpec, value int64) error {
	addr := base.Add(f.Offset)

	var err error
	switch f.Encoding {
	case layout.Int16:
		err = process.WriteINT16(mem, addr, int16(value))
	case layout.Int32:
		err = process.WriteINT32(mem, addr, int32(value))
	default:
		err = layout.ErrBadEncoding
	}
	if err != nil {
		return fmt.Errorf("write %s at %s: %w", f.Name, addr.ToString(), err)
	}
	return nil
}
