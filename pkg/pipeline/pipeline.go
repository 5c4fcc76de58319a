// Package pipeline runs highwaype end to end.
//
// A run has up to five stages, each feeding the next:
//
//  1. Ingest: read the centerline from a DXF drawing or GeoJSON file
//  2. Layout: place devices by rule, or survey the inserts already drawn
//  3. Export: drawing, location tables, bill of materials, register
//  4. Diagram: power and network system diagrams
//  5. Sheets: plot frames along the route
//
// Placements and rendered diagrams are cached by content hash, so repeating
// a run on an unchanged drawing and project file only rewrites the outputs.
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "route.dxf",
//	    Config: cfg,
//	})
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/bom"
	"github.com/highwaype/highwaype/pkg/config"
	"github.com/highwaype/highwaype/pkg/diagram"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/ingest"
	"github.com/highwaype/highwaype/pkg/layout"
	"github.com/highwaype/highwaype/pkg/sheets"
)

// Output formats of the export stage.
const (
	FormatDXF     = "dxf"     // <base>.devices.dxf
	FormatXLSX    = "xlsx"    // <base>.locations.xlsx and <base>.bom.xlsx
	FormatCSV     = "csv"     // <base>.locations.csv
	FormatGeoJSON = "geojson" // <base>.devices.geojson
	FormatSQLite  = "db"      // <base>.db, appended to
)

// Output formats of the diagram stage, one file per diagram kind.
const (
	DiagramSVG = "svg"
	DiagramDOT = "dot"
	DiagramDXF = "dxf"
)

// Defaults used when Options leaves a list empty.
var (
	DefaultFormats  = []string{FormatDXF, FormatXLSX, FormatCSV}
	DefaultDiagrams = []string{DiagramSVG, DiagramDXF}
)

var validFormats = map[string]bool{
	FormatDXF: true, FormatXLSX: true, FormatCSV: true, FormatGeoJSON: true, FormatSQLite: true,
}

var validDiagrams = map[string]bool{
	DiagramSVG: true, DiagramDOT: true, DiagramDXF: true,
}

// ValidateFormats checks export format names.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (want dxf, xlsx, csv, geojson or db)", f)
		}
	}
	return nil
}

// ValidateDiagrams checks diagram format names.
func ValidateDiagrams(formats []string) error {
	for _, f := range formats {
		if !validDiagrams[f] {
			return errors.New(errors.ErrCodeInvalidInput, "invalid diagram format %q (want svg, dot or dxf)", f)
		}
	}
	return nil
}

// ParseList splits a comma-separated flag value, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Options configures a run.
type Options struct {
	Input  string         // centerline drawing (.dxf) or GeoJSON
	Output string         // output base path, Input without extension when empty
	Config *config.Config // resolved project file

	Survey   bool     // take devices from the drawing instead of the rules
	Formats  []string // export formats, DefaultFormats when empty
	Diagrams []string // diagram formats, DefaultDiagrams when empty
	Sheets   bool     // plan and draw plot frames
	Refresh  bool     // ignore cached placements and diagrams

	RunID  string        // generated when empty
	Pick   ingest.Picker // chooses among several centerlines
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks the options and fills defaults. Calling it
// again has no effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no input drawing")
	}
	if o.Config == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "no project configuration")
	}
	if o.Output == "" {
		o.Output = strings.TrimSuffix(o.Input, filepath.Ext(o.Input))
	}
	if err := errors.ValidateOutputPath(o.Output); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if len(o.Diagrams) == 0 {
		o.Diagrams = DefaultDiagrams
	}
	if err := ValidateDiagrams(o.Diagrams); err != nil {
		return err
	}
	if !o.Survey && len(o.Config.Rules) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "project file has no rules")
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.validated = true
	return nil
}

func (o *Options) wants(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// path returns the output file for a suffix such as "locations.xlsx".
func (o *Options) path(suffix string) string { return o.Output + "." + suffix }

// Result holds everything a run produced.
type Result struct {
	RunID      string
	Alignment  *alignment.Alignment
	Placements []layout.Placement
	Counts     map[string]int
	Warnings   []errors.Warning
	BOM        *bom.BOM
	Power      *diagram.Graph // nil without a [power] section
	Network    *diagram.Graph // nil without a [network] section
	Frames     []sheets.Frame
	Files      []string // written outputs in stage order

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds stage timings.
type Stats struct {
	IngestTime  time.Duration
	LayoutTime  time.Duration
	ExportTime  time.Duration
	DiagramTime time.Duration
}

// CacheInfo tracks which stages came from the cache.
type CacheInfo struct {
	LayoutHit  bool
	DiagramHit bool // every requested diagram file
}

func (r *Result) warn(ws ...errors.Warning) { r.Warnings = append(r.Warnings, ws...) }
