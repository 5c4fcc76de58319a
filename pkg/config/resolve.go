package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/highwaype/highwaype/pkg/annotate"
	"github.com/highwaype/highwaype/pkg/diagram"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
	"github.com/highwaype/highwaype/pkg/layout"
	"github.com/highwaype/highwaype/pkg/sheets"
)

// Resolve validates f and converts it to domain types.
func (f *File) Resolve() (*Config, error) {
	cfg := &Config{
		Project: f.Project,
		Ingest: ingest.Options{
			Layer:     f.Alignment.Layer,
			Tolerance: f.Alignment.Tolerance,
		},
		Layout: layout.Options{
			StartStation: f.Alignment.StartStation.Value,
			Decimals:     f.Alignment.Decimals,
			Strict:       f.Alignment.Strict,
		},
		SurveyBlocks: f.Survey.Blocks,
		Legends:      f.Annotate.Legends,
		LegendSource: f.Annotate.LegendSource,
		Annotate: annotate.Options{
			SymbolSize:   f.Annotate.SymbolSize,
			LeaderLength: f.Annotate.LeaderLength,
			TextHeight:   f.Annotate.TextHeight,
		},
	}
	if err := cfg.Ingest.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if cfg.Layout.Decimals < 0 || cfg.Layout.Decimals > 6 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "alignment.decimals must be 0 to 6, got %d", cfg.Layout.Decimals)
	}
	start := cfg.Layout.StartStation

	for i, s := range f.Segments {
		seg, err := s.resolve(start)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		cfg.Layout.Segments = append(cfg.Layout.Segments, seg)
	}

	for i, r := range f.Rules {
		rule, err := r.resolve(start)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		cfg.Rules = append(cfg.Rules, rule)
	}

	if f.Power != nil {
		p, err := f.Power.resolve(start)
		if err != nil {
			return nil, fmt.Errorf("power: %w", err)
		}
		cfg.Power = p
	}
	if f.Network != nil {
		n, err := f.Network.resolve(start)
		if err != nil {
			return nil, fmt.Errorf("network: %w", err)
		}
		cfg.Network = n
	}
	for block, cat := range f.Survey.Blocks {
		if err := errors.ValidateName("survey category", cat); err != nil {
			return nil, fmt.Errorf("survey block %s: %w", block, err)
		}
	}
	if f.Sheets != nil {
		o := sheets.Options{
			PaperWidth:  f.Sheets.PaperWidth,
			PaperHeight: f.Sheets.PaperHeight,
			Scale:       f.Sheets.Scale,
			Overlap:     f.Sheets.Overlap,
			Prefix:      f.Sheets.Prefix,
		}
		if err := o.ValidateAndSetDefaults(); err != nil {
			return nil, fmt.Errorf("sheets: %w", err)
		}
		cfg.Sheets = &o
	}
	return cfg, nil
}

func (s SegmentSection) resolve(start float64) (layout.Segment, error) {
	if err := errors.ValidateName("segment", s.Name); err != nil {
		return layout.Segment{}, err
	}
	if !s.Start.Set || !s.End.Set {
		return layout.Segment{}, errors.New(errors.ErrCodeInvalidConfig, "segment %s needs start and end", s.Name)
	}
	seg := layout.Segment{Name: s.Name, Start: s.Start.distance(start), End: s.End.distance(start)}
	if seg.Start < 0 || seg.End <= seg.Start {
		return layout.Segment{}, errors.New(errors.ErrCodeInvalidConfig,
			"segment %s: start must be at or after the start station and before end", s.Name)
	}
	return seg, nil
}

func (r RuleSection) resolve(start float64) (layout.Rule, error) {
	rule := layout.Rule{
		Category:  r.Category,
		Label:     r.Label,
		Block:     r.Block,
		Spacing:   r.Spacing,
		Start:     r.Start.distance(start),
		End:       r.End.distance(start),
		Offset:    r.Offset,
		Clearance: r.Clearance,
	}
	var err error
	if r.Side != "" {
		if rule.Side, err = layout.ParseSide(r.Side); err != nil {
			return layout.Rule{}, err
		}
	}
	if r.Orientation != "" {
		if rule.Orientation, err = layout.ParseOrientation(r.Orientation); err != nil {
			return layout.Rule{}, err
		}
	}
	if r.Endpoint != "" {
		if rule.Endpoint, err = layout.ParseEndpoint(r.Endpoint); err != nil {
			return layout.Rule{}, err
		}
	}
	if err := rule.Validate(); err != nil {
		return layout.Rule{}, err
	}
	if !(r.Spacing > 0) {
		return layout.Rule{}, errors.New(errors.ErrCodeInvalidConfig, "rule %s: spacing must be positive, got %v", r.Category, r.Spacing)
	}
	if rule.Start < 0 {
		return layout.Rule{}, errors.New(errors.ErrCodeInvalidConfig, "rule %s: start is before the start station", r.Category)
	}
	if r.End.Set && rule.End <= rule.Start {
		return layout.Rule{}, errors.New(errors.ErrCodeInvalidConfig, "rule %s: end must be after start", r.Category)
	}
	if r.Block != "" {
		if err := errors.ValidateName("block", r.Block); err != nil {
			return layout.Rule{}, err
		}
	}
	return rule, nil
}

func sources(kind string, in []SourceSection, start float64) ([]diagram.Source, error) {
	out := make([]diagram.Source, 0, len(in))
	for _, s := range in {
		if !s.Station.Set {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s %q has no station", kind, s.Name)
		}
		d := s.Station.distance(start)
		if d < 0 || math.IsNaN(d) {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s %q is before the start station", kind, s.Name)
		}
		out = append(out, diagram.Source{Name: s.Name, Distance: d})
	}
	return out, nil
}

func (p *PowerSection) resolve(start float64) (*diagram.PowerParams, error) {
	feeders, err := sources("feeder", p.Feeders, start)
	if err != nil {
		return nil, err
	}
	params := &diagram.PowerParams{
		Voltage:     p.Voltage,
		Phases:      p.Phases,
		PowerFactor: p.PowerFactor,
		MaxDropPct:  p.MaxDrop,
		Loads:       upperKeys(p.Loads),
		Feeders:     feeders,
	}
	if p.Slack != nil {
		if *p.Slack < 1 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "slack must be at least 1, got %v", *p.Slack)
		}
		params.Slack = *p.Slack
	}
	for _, c := range p.Conductors {
		params.Conductors = append(params.Conductors, diagram.Conductor{Name: c.Name, Resistance: c.Resistance, Ampacity: c.Ampacity})
	}
	if err := params.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return params, nil
}

func (n *NetworkSection) resolve(start float64) (*diagram.NetworkParams, error) {
	hubs, err := sources("hub", n.Hubs, start)
	if err != nil {
		return nil, err
	}
	params := &diagram.NetworkParams{
		Cable:      n.Cable,
		CableCores: n.CableCores,
		Cores:      make(map[string]int, len(n.Cores)),
		Hubs:       hubs,
	}
	if n.Slack != nil {
		if *n.Slack < 1 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "slack must be at least 1, got %v", *n.Slack)
		}
		params.Slack = *n.Slack
	}
	for k, v := range n.Cores {
		params.Cores[strings.ToUpper(k)] = v
	}
	if err := params.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return params, nil
}

func upperKeys(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}
