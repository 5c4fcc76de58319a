package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/highwaype/highwaype/pkg/diagram"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
	"github.com/highwaype/highwaype/pkg/sheets"
)

const projectTOML = `
project = "G56 Huilu"

[alignment]
layer = "CL"
start_station = "K12+000"
decimals = 1

[[segment]]
name = "Main"
start = "K12+000"
end = 13500

[[rule]]
category = "CCTV"
label = "Camera"
spacing = 500
start = "K12+100"
side = "both"
offset = 12.5
clearance = 20

[[rule]]
category = "VMS"
spacing = 1000
orientation = "parallel"
endpoint = "terminal"

[power]
phases = 1
voltage = 220
max_drop = 4

[[power.feeder]]
name = "F1"
station = "K12+800"

[[power.conductor]]
name = "YJV-3x10"
resistance = 1.83
ampacity = 60

[power.loads]
cctv = 150
VMS = 800

[network]
cable_cores = 24

[[network.hub]]
name = "H1"
station = 12000

[network.cores]
CCTV = 2

[survey.blocks]
CAM01 = "CCTV"

[annotate]
legends = true
legend_source = "legends.dxf"

[sheets]
scale = 500
`

const projectYAML = `
project: G56 Huilu
alignment:
  layer: CL
  start_station: K12+000
  decimals: 1
segment:
  - name: Main
    start: K12+000
    end: 13500
rule:
  - category: CCTV
    label: Camera
    spacing: 500
    start: K12+100
    side: both
    offset: 12.5
    clearance: 20
  - category: VMS
    spacing: 1000
    orientation: parallel
    endpoint: terminal
power:
  phases: 1
  voltage: 220
  max_drop: 4
  feeder:
    - name: F1
      station: K12+800
  conductor:
    - name: YJV-3x10
      resistance: 1.83
      ampacity: 60
  loads:
    cctv: 150
    VMS: 800
network:
  cable_cores: 24
  hub:
    - name: H1
      station: 12000
  cores:
    CCTV: 2
survey:
  blocks:
    CAM01: CCTV
annotate:
  legends: true
  legend_source: legends.dxf
sheets:
  scale: 500
`

func TestResolve(t *testing.T) {
	for _, tt := range []struct {
		format Format
		data   string
	}{
		{FormatTOML, projectTOML},
		{FormatYAML, projectYAML},
	} {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			cfg, err := f.Resolve()
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}

			if cfg.Project != "G56 Huilu" || cfg.Ingest.Layer != "CL" || cfg.Layout.StartStation != 12000 || cfg.Layout.Decimals != 1 {
				t.Errorf("config = %+v", cfg)
			}
			wantSeg := []layout.Segment{{Name: "Main", Start: 0, End: 1500}}
			if !reflect.DeepEqual(cfg.Layout.Segments, wantSeg) {
				t.Errorf("segments = %+v", cfg.Layout.Segments)
			}
			wantRules := []layout.Rule{
				{Category: "CCTV", Label: "Camera", Spacing: 500, Start: 100, Side: layout.SideBoth, Offset: 12.5, Clearance: 20},
				{Category: "VMS", Spacing: 1000, Orientation: layout.Parallel, Endpoint: layout.EndpointTerminal},
			}
			if !reflect.DeepEqual(cfg.Rules, wantRules) {
				t.Errorf("rules = %+v\nwant %+v", cfg.Rules, wantRules)
			}

			p := cfg.Power
			if p == nil || p.Phases != 1 || p.Voltage != 220 || p.MaxDropPct != 4 || p.PowerFactor != 0.9 {
				t.Fatalf("power = %+v", p)
			}
			if p.Loads["CCTV"] != 150 || p.Loads["VMS"] != 800 || p.Feeders[0].Distance != 800 || p.Conductors[0].Ampacity != 60 {
				t.Errorf("power = %+v", p)
			}
			n := cfg.Network
			if n == nil || n.CableCores != 24 || n.Cable != "24-core" || n.Cores["CCTV"] != 2 || n.Hubs[0].Distance != 0 {
				t.Errorf("network = %+v", n)
			}
			if cfg.SurveyBlocks["CAM01"] != "CCTV" || !cfg.Legends || cfg.LegendSource != "legends.dxf" {
				t.Errorf("survey/annotate = %v %v %q", cfg.SurveyBlocks, cfg.Legends, cfg.LegendSource)
			}
			if cfg.Sheets == nil || cfg.Sheets.Scale != 500 || cfg.Sheets.PaperWidth != 420 {
				t.Errorf("sheets = %+v", cfg.Sheets)
			}
		})
	}
}

func TestResolveMinimal(t *testing.T) {
	f, err := Parse([]byte("[[rule]]\ncategory = \"ETC\"\nspacing = 250\n"), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := f.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.Layer != "ROAD_CENTER" || cfg.Power != nil || cfg.Network != nil || cfg.Sheets != nil {
		t.Errorf("config = %+v", cfg)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Side != layout.SideCenter || cfg.Rules[0].End != 0 {
		t.Errorf("rules = %+v", cfg.Rules)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code errors.Code
	}{
		{"unknown key", "[alignment]\nlayr = \"X\"\n", errors.ErrCodeInvalidConfig},
		{"bad station", "[alignment]\nstart_station = \"K1+2000\"\n", errors.ErrCodeInvalidConfig},
		{"bad side", "[[rule]]\ncategory = \"A\"\nspacing = 1\nside = \"up\"\n", errors.ErrCodeInvalidConfig},
		{"zero spacing", "[[rule]]\ncategory = \"A\"\n", errors.ErrCodeInvalidConfig},
		{"negative offset", "[[rule]]\ncategory = \"A\"\nspacing = 1\noffset = -1\n", errors.ErrCodeInvalidConfig},
		{"rule before start", "[alignment]\nstart_station = 100\n[[rule]]\ncategory = \"A\"\nspacing = 1\nstart = 50\n", errors.ErrCodeInvalidConfig},
		{"empty range", "[[rule]]\ncategory = \"A\"\nspacing = 1\nstart = 50\nend = 50\n", errors.ErrCodeInvalidConfig},
		{"bad block", "[[rule]]\ncategory = \"A\"\nspacing = 1\nblock = \"a/b\"\n", errors.ErrCodeInvalidConfig},
		{"segment without end", "[[segment]]\nname = \"S\"\nstart = 0\n", errors.ErrCodeInvalidConfig},
		{"three phases only", "[power]\nphases = 2\n", errors.ErrCodeInvalidConfig},
		{"feeder without station", "[power]\n[[power.feeder]]\nname = \"F\"\n", errors.ErrCodeInvalidConfig},
		{"network without cores", "[network]\n[[network.hub]]\nname = \"H\"\nstation = 0\n", errors.ErrCodeInvalidConfig},
		{"sheet overlap", "[sheets]\noverlap = 1.5\n", errors.ErrCodeInvalidConfig},
		{"zero power slack", "[power]\nslack = 0\n[[power.feeder]]\nname = \"F\"\nstation = 0\n[[power.conductor]]\nname = \"C\"\nresistance = 1\nampacity = 10\n", errors.ErrCodeInvalidConfig},
		{"zero network slack", "[network]\ncable_cores = 12\nslack = 0\n[[network.hub]]\nname = \"H\"\nstation = 0\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.toml), FormatTOML)
			if err == nil {
				_, err = f.Resolve()
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExplicitZeros(t *testing.T) {
	power := "[power]\n[[power.feeder]]\nname = \"F\"\nstation = 0\n[[power.conductor]]\nname = \"C\"\nresistance = 1\nampacity = 10\n"
	tests := []struct {
		name    string
		format  Format
		data    string
		overlap float64
		slack   float64
	}{
		{"defaults", FormatTOML, "[sheets]\n" + power, sheets.DefaultOverlap, diagram.DefaultSlack},
		{"zero overlap", FormatTOML, "[sheets]\noverlap = 0\n" + power, 0, diagram.DefaultSlack},
		{"no slack", FormatTOML, "[sheets]\n" + strings.Replace(power, "[power]\n", "[power]\nslack = 1\n", 1), sheets.DefaultOverlap, 1},
		{"zero overlap yaml", FormatYAML, "sheets:\n  overlap: 0\n", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			cfg, err := f.Resolve()
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if cfg.Sheets == nil || cfg.Sheets.Overlap == nil || *cfg.Sheets.Overlap != tt.overlap {
				t.Errorf("sheets = %+v, want overlap %v", cfg.Sheets, tt.overlap)
			}
			if cfg.Power != nil && cfg.Power.Slack != tt.slack {
				t.Errorf("power slack = %v, want %v", cfg.Power.Slack, tt.slack)
			}
		})
	}
}

func TestYAMLUnknownField(t *testing.T) {
	if _, err := Parse([]byte("alignment:\n  layr: X\n"), FormatYAML); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Parse() error = %v", err)
	}
	f, err := Parse(nil, FormatYAML)
	if err != nil || f == nil {
		t.Errorf("Parse(empty) = %v, %v", f, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.toml")
	if err := os.WriteFile(path, []byte(projectTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LegendSource != filepath.Join(dir, "legends.dxf") {
		t.Errorf("legend source = %q", cfg.LegendSource)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
	if _, err := Load(filepath.Join(dir, "project.ini")); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Load(.ini) error = %v", err)
	}
}
