package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
)

const testRoute = `{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[2000,0]]}}`

const testProject = `
project = "CLI Route"

[alignment]
start_station = "K10+000"

[[rule]]
category = "CCTV"
spacing = 500
offset = 5
side = "left"

[power]
[[power.feeder]]
name = "F1"
station = "K11+000"

[[power.conductor]]
name = "YJV-3x16"
resistance = 1.15
ampacity = 80

[power.loads]
CCTV = 150
`

func writeTemp(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	sort.Strings(got)
	for _, want := range []string{"cache", "completion", "diagram", "frames", "inspect", "place", "station", "survey"} {
		i := sort.SearchStrings(got, want)
		if i == len(got) || got[i] != want {
			t.Errorf("missing subcommand %s in %v", want, got)
		}
	}
}

func TestPlaceAndDiagramCommands(t *testing.T) {
	dir := t.TempDir()
	route := writeTemp(t, dir, "route.geojson", testRoute)
	project := writeTemp(t, dir, "project.toml", testProject)
	base := filepath.Join(dir, "out", "route")

	err := execute(t, "place", route, "-c", project, "-o", base, "--format", "csv", "--diagram", "dot", "--no-cache")
	if err != nil {
		t.Fatalf("place error: %v", err)
	}
	for _, suffix := range []string{".locations.csv", ".power.dot"} {
		if _, err := os.Stat(base + suffix); err != nil {
			t.Errorf("missing output %s: %v", suffix, err)
		}
	}
	if err := os.Remove(base + ".power.dot"); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "diagram", base+".locations.csv", "-c", project, "--format", "dot"); err != nil {
		t.Fatalf("diagram error: %v", err)
	}
	if _, err := os.Stat(base + ".power.dot"); err != nil {
		t.Errorf("diagram did not rewrite the power diagram: %v", err)
	}
}

func TestPlaceCommandErrors(t *testing.T) {
	dir := t.TempDir()
	route := writeTemp(t, dir, "route.geojson", testRoute)
	project := writeTemp(t, dir, "project.toml", testProject)
	empty := writeTemp(t, dir, "empty.toml", `project = "x"`)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no rules", []string{"place", route, "-c", empty, "--no-cache"}, errors.ErrCodeInvalidConfig},
		{"missing config", []string{"place", route, "-c", filepath.Join(dir, "none.toml")}, errors.ErrCodeFileNotFound},
		{"bad format", []string{"place", route, "-c", project, "--format", "pdf"}, errors.ErrCodeInvalidInput},
		{"pick and interactive", []string{"place", route, "-c", project, "--pick", "1", "-i"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestStationCommand(t *testing.T) {
	dir := t.TempDir()
	route := writeTemp(t, dir, "route.geojson", testRoute)
	project := writeTemp(t, dir, "project.toml", testProject)

	if err := execute(t, "station", route, "-c", project, "K10+500", "--at", "100,-3"); err != nil {
		t.Fatalf("station error: %v", err)
	}
	err := execute(t, "station", route, "--start", "K10+000", "K12+500")
	if !errors.Is(err, errors.ErrCodeInvalidStation) {
		t.Errorf("station past the end error = %v, want INVALID_STATION", err)
	}
	if err := execute(t, "station", route); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("station without queries error = %v, want INVALID_INPUT", err)
	}
}

func TestFramesPlanCommand(t *testing.T) {
	dir := t.TempDir()
	route := writeTemp(t, dir, "route.geojson", testRoute)
	out := filepath.Join(dir, "frames.dxf")

	if err := execute(t, "frames", "plan", route, "-o", out); err != nil {
		t.Fatalf("frames plan error: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("missing frames drawing: %v", err)
	}
}

func TestFramesPlanOverlap(t *testing.T) {
	dir := t.TempDir()
	route := writeTemp(t, dir, "route.geojson", testRoute)
	project := writeTemp(t, dir, "sheets.toml", "[sheets]\nscale = 500\noverlap = 0\n")

	// 210 m sheets on a 2000 m route: 10 abutting sheets, 11 with 10% overlap.
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"default overlap", []string{"--scale", "500"}, 11},
		{"zero overlap flag", []string{"--scale", "500", "--overlap", "0"}, 10},
		{"zero overlap in project", []string{"-c", project}, 10},
		{"flag overrides project", []string{"-c", project, "--overlap", "0.1"}, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "frames.dxf")
			args := append([]string{"frames", "plan", route, "-o", out}, tt.args...)
			if err := execute(t, args...); err != nil {
				t.Fatalf("frames plan error: %v", err)
			}
			doc, err := dxf.Open(out)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			outlines := 0
			for _, e := range doc.Entities() {
				if _, ok := e.(dxf.Polyline); ok {
					outlines++
				}
			}
			if outlines != tt.want {
				t.Errorf("outlines = %d, want %d", outlines, tt.want)
			}
		})
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in   string
		want orb.Point
		err  bool
	}{
		{"1.5,-2", orb.Point{1.5, -2}, false},
		{" 10 , 20 ", orb.Point{10, 20}, false},
		{"1", orb.Point{}, true},
		{"1,2,3", orb.Point{}, true},
		{"a,b", orb.Point{}, true},
		{"NaN,1", orb.Point{}, true},
	}
	for _, tt := range tests {
		got, err := parsePoint(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("parsePoint(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePoint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiagramBase(t *testing.T) {
	tests := map[string]string{
		"out/route.locations.xlsx": "out/route",
		"route.locations.csv":      "route",
		"table.csv":                "table",
	}
	for in, want := range tests {
		if got := diagramBase(in); got != want {
			t.Errorf("diagramBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormDegrees(t *testing.T) {
	tests := map[float64]float64{0: 0, 90: 90, -90: 270, 360: 0, 450: 90}
	for in, want := range tests {
		if got := normDegrees(in); got != want {
			t.Errorf("normDegrees(%v) = %v, want %v", in, got, want)
		}
	}
}
