// Package pkg provides the core libraries of highwaype, a layout tool for
// roadside devices along a highway route.
//
// # Overview
//
// Highwaype reads a route centerline from a CAD drawing, places devices such
// as cameras, signs and emergency phones at rule-defined spacings and
// offsets, and writes the annotated drawing, location and quantity tables,
// and power and fiber system diagrams.
//
// # Architecture
//
// The data flow of a run:
//
//	DXF drawing / GeoJSON
//	         ↓
//	    [ingest] (centerline entities → [alignment])
//	         ↓
//	    [layout] (rules or surveyed blocks → placements)
//	         ↓
//	    [bom], [diagram], [sheets] (quantities, circuits, plot frames)
//	         ↓
//	    [annotate], [report] (drawing, XLSX, CSV, GeoJSON, SQLite)
//
// [pipeline] runs these stages with caching ([cache]) and stage hooks
// ([observability]).
//
// # Quick Start
//
//	cfg, _ := config.Load("project.toml")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "route.dxf",
//	    Config: cfg,
//	})
//
// # Main Packages
//
// ## Geometry
//
// [station] - Chainage formatting and parsing ("K12+345.678").
//
// [alignment] - Route centerline with straight and arc segments: station to
// point, point to station, chaining of drawn pieces.
//
// [dxf] - Reading, editing and writing ASCII DXF drawings without losing
// entities the tool does not understand.
//
// ## Domain Logic
//
// [ingest] - Builds an alignment from a drawing layer or a GeoJSON line.
//
// [layout] - Places devices by rule, or recovers them from drawn blocks.
//
// [bom] - Device and cable quantities per segment.
//
// [diagram] - Power circuits with voltage drop checks and fiber core
// allocation, rendered as DOT, SVG or a DXF schematic.
//
// [sheets] - Plot sheet planning and title-block renumbering.
//
// [annotate] - Device blocks, labels and legends in the drawing.
//
// ## Infrastructure
//
// [config] - TOML and YAML project files.
//
// [report] - Location and quantity tables.
//
// [cache] - File and Redis caches for placements and diagrams.
//
// [errors] - Error codes and warnings.
//
// [ingest]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/ingest
// [alignment]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/alignment
// [layout]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/layout
// [bom]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/bom
// [diagram]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/diagram
// [sheets]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/sheets
// [annotate]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/annotate
// [report]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/report
// [pipeline]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/cache
// [observability]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/observability
// [station]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/station
// [dxf]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/dxf
// [config]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/config
// [errors]: https://pkg.go.dev/github.com/highwaype/highwaype/pkg/errors
package pkg
