package config

import (
	"fmt"

	"github.com/aretw0/onboard/pkg/graph"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// stateRecord is one node as written under "states" when keyed by id.
type stateRecord struct {
	ID       string                   `mapstructure:"id"`
	Text     string                   `mapstructure:"text"`
	Previous string                   `mapstructure:"previous"`
	Buttons  []graph.ButtonDefinition `mapstructure:"buttons"`
}

// decodeStates accepts either a mapping of id to record (document order is
// kept) or a sequence of records carrying their own id.
func decodeStates(node *yaml.Node) ([]graph.Definition, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		defs := make([]graph.Definition, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			def, err := decodeState(value, key.Value)
			if err != nil {
				return nil, fmt.Errorf("states.%s (line %d): %w", key.Value, key.Line, err)
			}
			defs = append(defs, def)
		}
		return defs, nil
	case yaml.SequenceNode:
		defs := make([]graph.Definition, 0, len(node.Content))
		for i, value := range node.Content {
			def, err := decodeState(value, "")
			if err != nil {
				return nil, fmt.Errorf("states[%d] (line %d): %w", i, value.Line, err)
			}
			defs = append(defs, def)
		}
		return defs, nil
	default:
		return nil, fmt.Errorf("states (line %d): expected a mapping or a list", node.Line)
	}
}

func decodeState(node *yaml.Node, key string) (graph.Definition, error) {
	if node.Kind != yaml.MappingNode {
		return graph.Definition{}, fmt.Errorf("expected a mapping")
	}
	raw := plain(node)

	var rec stateRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &rec,
	})
	if err != nil {
		return graph.Definition{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return graph.Definition{}, err
	}

	if key != "" {
		if rec.ID != "" && rec.ID != key {
			return graph.Definition{}, fmt.Errorf("id %q does not match key %q", rec.ID, key)
		}
		rec.ID = key
	}

	return graph.Definition{
		ID:       rec.ID,
		Text:     rec.Text,
		Previous: rec.Previous,
		Buttons:  rec.Buttons,
	}, nil
}

// plain converts a node to maps, slices and strings. Scalars keep their
// source text, so an unquoted label such as 1 or true stays a string label.
func plain(node *yaml.Node) any {
	switch node.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			m[node.Content[i].Value] = plain(node.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			list = append(list, plain(item))
		}
		return list
	case yaml.AliasNode:
		return plain(node.Alias)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		return node.Value
	default:
		return nil
	}
}
