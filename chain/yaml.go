package chain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// A Spec is written in YAML as one string, "+0x2994e8 * +0x21620", or as a list of
// quoted steps. A bare * would be read as a YAML alias, so the list form needs quotes.

func (s Spec) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		spec, err := ParseSpec(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*s = spec
		return nil

	case yaml.SequenceNode:
		spec := make(Spec, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: chain step must be a string", item.Line)
			}
			step, err := ParseStep(item.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			spec = append(spec, step)
		}
		*s = spec
		return nil

	default:
		return fmt.Errorf("line %d: chain must be a string or a list of steps", value.Line)
	}
}
