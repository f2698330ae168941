package ui

import (
	"encoding/json"
	"fmt"

	"chartview/internal/chart"
	"chartview/internal/indicator"
)

// Layout is the persisted per-symbol chart setup: attached indicators
// and drawings. It round-trips through the SQLite store as JSON.
type Layout struct {
	Version     int                `json:"version"`
	Indicators  []indicator.Config `json:"indicators"`
	Annotations chart.Annotations  `json:"annotations"`
}

const layoutVersion = 1

// EncodeLayout serializes the current indicator set and annotations.
func EncodeLayout(s *chart.State) ([]byte, error) {
	l := Layout{
		Version:     layoutVersion,
		Indicators:  s.Indicators,
		Annotations: s.Annotations,
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// DecodeLayout restores a saved layout into the state. Unknown
// versions are rejected rather than half-applied.
func DecodeLayout(s *chart.State, data []byte) error {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}
	if l.Version != layoutVersion {
		return fmt.Errorf("decode layout: unsupported version %d", l.Version)
	}
	s.Indicators = l.Indicators
	s.Annotations = l.Annotations
	s.Selected = chart.Ref{}
	s.Hovered = chart.Ref{}
	return nil
}
