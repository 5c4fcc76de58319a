// Package config loads project files.
//
// A project file is TOML or YAML with the same keys. It is decoded into raw
// section structs and then resolved into the domain types of the layout,
// diagram, annotation and sheet packages; every enum and limit is checked at
// load time so a bad rule never reaches a run.
//
//	[alignment]
//	layer = "ROAD_CENTER"
//	start_station = "K12+000"
//
//	[[rule]]
//	category = "CCTV"
//	spacing = 500
//	side = "both"
//	offset = 12.5
//
// Stations may be written as metres (12345.6) or as chainage strings
// ("K12+345.6"). Rule, segment, feeder and hub stations are chainages and
// are converted to distances along the alignment by subtracting the start
// station.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/highwaype/highwaype/pkg/annotate"
	"github.com/highwaype/highwaype/pkg/diagram"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
	"github.com/highwaype/highwaype/pkg/layout"
	"github.com/highwaype/highwaype/pkg/sheets"
)

// Format is a project file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format for a file name.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported config file %s (want .toml, .yaml or .yml)", path)
}

// File is a project file as written.
type File struct {
	Project   string           `toml:"project" yaml:"project"`
	Alignment AlignmentSection `toml:"alignment" yaml:"alignment"`
	Segments  []SegmentSection `toml:"segment" yaml:"segment"`
	Rules     []RuleSection    `toml:"rule" yaml:"rule"`
	Power     *PowerSection    `toml:"power" yaml:"power"`
	Network   *NetworkSection  `toml:"network" yaml:"network"`
	Survey    SurveySection    `toml:"survey" yaml:"survey"`
	Annotate  AnnotateSection  `toml:"annotate" yaml:"annotate"`
	Sheets    *SheetsSection   `toml:"sheets" yaml:"sheets"`
}

type AlignmentSection struct {
	Layer        string  `toml:"layer" yaml:"layer"`
	Tolerance    float64 `toml:"tolerance" yaml:"tolerance"`
	StartStation Station `toml:"start_station" yaml:"start_station"`
	Decimals     int     `toml:"decimals" yaml:"decimals"`
	Strict       bool    `toml:"strict" yaml:"strict"`
}

type SegmentSection struct {
	Name  string  `toml:"name" yaml:"name"`
	Start Station `toml:"start" yaml:"start"`
	End   Station `toml:"end" yaml:"end"`
}

type RuleSection struct {
	Category    string  `toml:"category" yaml:"category"`
	Label       string  `toml:"label" yaml:"label"`
	Block       string  `toml:"block" yaml:"block"`
	Spacing     float64 `toml:"spacing" yaml:"spacing"`
	Start       Station `toml:"start" yaml:"start"`
	End         Station `toml:"end" yaml:"end"`
	Offset      float64 `toml:"offset" yaml:"offset"`
	Side        string  `toml:"side" yaml:"side"`
	Orientation string  `toml:"orientation" yaml:"orientation"`
	Endpoint    string  `toml:"endpoint" yaml:"endpoint"`
	Clearance   float64 `toml:"clearance" yaml:"clearance"`
}

type SourceSection struct {
	Name    string  `toml:"name" yaml:"name"`
	Station Station `toml:"station" yaml:"station"`
}

type ConductorSection struct {
	Name       string  `toml:"name" yaml:"name"`
	Resistance float64 `toml:"resistance" yaml:"resistance"` // Ω/km
	Ampacity   float64 `toml:"ampacity" yaml:"ampacity"`
}

type PowerSection struct {
	Voltage     float64            `toml:"voltage" yaml:"voltage"`
	Phases      int                `toml:"phases" yaml:"phases"`
	PowerFactor float64            `toml:"power_factor" yaml:"power_factor"`
	MaxDrop     float64            `toml:"max_drop" yaml:"max_drop"` // percent
	Slack       *float64           `toml:"slack" yaml:"slack"`
	Feeders     []SourceSection    `toml:"feeder" yaml:"feeder"`
	Conductors  []ConductorSection `toml:"conductor" yaml:"conductor"`
	Loads       map[string]float64 `toml:"loads" yaml:"loads"` // W per category
}

type NetworkSection struct {
	Cable      string          `toml:"cable" yaml:"cable"`
	CableCores int             `toml:"cable_cores" yaml:"cable_cores"`
	Slack      *float64        `toml:"slack" yaml:"slack"`
	Hubs       []SourceSection `toml:"hub" yaml:"hub"`
	Cores      map[string]int  `toml:"cores" yaml:"cores"` // per category
}

type SurveySection struct {
	// Blocks maps block names to device categories.
	Blocks map[string]string `toml:"blocks" yaml:"blocks"`
}

type AnnotateSection struct {
	Legends      bool    `toml:"legends" yaml:"legends"`
	LegendSource string  `toml:"legend_source" yaml:"legend_source"`
	SymbolSize   float64 `toml:"symbol_size" yaml:"symbol_size"`
	LeaderLength float64 `toml:"leader_length" yaml:"leader_length"`
	TextHeight   float64 `toml:"text_height" yaml:"text_height"`
}

type SheetsSection struct {
	PaperWidth  float64  `toml:"paper_width" yaml:"paper_width"`
	PaperHeight float64  `toml:"paper_height" yaml:"paper_height"`
	Scale       float64  `toml:"scale" yaml:"scale"`
	Overlap     *float64 `toml:"overlap" yaml:"overlap"`
	Prefix      string   `toml:"prefix" yaml:"prefix"`
}

// Config is a resolved project.
type Config struct {
	Project      string
	Ingest       ingest.Options
	Layout       layout.Options
	Rules        []layout.Rule
	Power        *diagram.PowerParams   // nil when the file has no [power]
	Network      *diagram.NetworkParams // nil when the file has no [network]
	SurveyBlocks map[string]string
	Legends      bool
	LegendSource string // resolved against the config file directory
	Annotate     annotate.Options
	Sheets       *sheets.Options // nil when the file has no [sheets]
}

// Load reads and resolves a project file.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, err
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	cfg, err := f.Resolve()
	if err != nil {
		return nil, err
	}
	if cfg.LegendSource != "" && !filepath.IsAbs(cfg.LegendSource) {
		cfg.LegendSource = filepath.Join(filepath.Dir(path), cfg.LegendSource)
	}
	return cfg, nil
}

// Parse decodes a project file. Unknown keys are errors.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode TOML")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode YAML")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported config format %q", format)
	}
	return &f, nil
}
