package layout

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

func (e Encoding) MarshalYAML() (interface{}, error) {
	if _, ok := encodingNames[e]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadEncoding, uint8(e))
	}
	return e.String(), nil
}

func (e *Encoding) UnmarshalYAML(value *yaml.Node) error {
	enc, err := ParseEncoding(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*e = enc
	return nil
}

// Load reads a YAML layout table and validates it. Unknown keys are rejected so a typo
// in an offset name does not silently fall back to zero.
func Load(r io.Reader) (*Layout, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func LoadFile(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout: %w", err)
	}
	defer f.Close()

	l, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// WriteYAML emits l in the form Load reads, as a starting point for a new table.
func (l *Layout) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return err
	}
	return enc.Close()
}
