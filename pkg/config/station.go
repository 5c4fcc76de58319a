package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/highwaype/highwaype/pkg/station"
)

// Station is a chainage written either as a number of metres or as a
// K<km>+<m> string. Set is false when the key is absent.
type Station struct {
	Value float64
	Set   bool
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Station) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case int64:
		s.Value = float64(t)
	case float64:
		s.Value = t
	case string:
		f, err := station.Parse(t)
		if err != nil {
			return err
		}
		s.Value = f
	default:
		return fmt.Errorf("station must be a number or a K<km>+<m> string, got %T", v)
	}
	s.Set = true
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Station) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: station must be a scalar", n.Line)
	}
	f, err := station.Parse(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	s.Value, s.Set = f, true
	return nil
}

// distance converts the chainage to a distance along the alignment.
func (s Station) distance(start float64) float64 {
	if !s.Set {
		return 0
	}
	return s.Value - start
}
