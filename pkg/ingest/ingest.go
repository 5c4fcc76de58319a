// Package ingest builds route alignments from drawings and GeoJSON.
//
// A DXF centerline is read from a single layer. LWPOLYLINE and POLYLINE
// entities keep their arc bulges, ARC entities become bulged two-vertex
// pieces, and LINE entities become straight pieces. One piece is used as is.
// Several pieces are chained end to end unless [Options.Pick] selects one.
package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
)

// Defaults for [Options].
const (
	DefaultLayer     = "ROAD_CENTER"
	DefaultTolerance = 0.01
)

// ChainAll is returned by a [Picker] to chain every candidate.
const ChainAll = -1

// Candidate is one centerline entity found on the centerline layer.
type Candidate struct {
	Index    int
	Type     string
	Handle   string
	Length   float64
	Closed   bool
	Vertices []alignment.Vertex
}

// Picker chooses among several candidates. It returns the index of the
// candidate to use, or [ChainAll].
type Picker func(candidates []Candidate) (int, error)

// Options configures [FromDXF].
type Options struct {
	Layer     string  // centerline layer, DefaultLayer when empty
	Tolerance float64 // endpoint snapping distance for chaining
	Pick      Picker  // optional
}

// ValidateAndSetDefaults fills zero values.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Layer == "" {
		o.Layer = DefaultLayer
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Tolerance < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "chain tolerance must be positive, got %g", o.Tolerance)
	}
	return nil
}

// Candidates lists the centerline entities on layer in drawing order.
func Candidates(doc *dxf.Document, layer string) []Candidate {
	var out []Candidate
	for _, e := range doc.Entities() {
		if !strings.EqualFold(e.EntityLayer(), layer) {
			continue
		}
		c := Candidate{Type: e.EntityType()}
		switch v := e.(type) {
		case dxf.Polyline:
			c.Handle, c.Closed = v.Handle, v.Closed
			for _, pv := range v.Vertices {
				c.Vertices = append(c.Vertices, alignment.Vertex{Point: pv.Point, Bulge: pv.Bulge})
			}
		case dxf.Line:
			c.Handle = v.Handle
			c.Vertices = []alignment.Vertex{{Point: v.Start}, {Point: v.End}}
		case dxf.Arc:
			c.Handle = v.Handle
			c.Vertices = alignment.ArcVertices(v.Center, v.Radius, v.StartAngle, v.EndAngle)
		default:
			continue
		}
		if al, err := alignment.New(c.Vertices, c.Closed); err == nil {
			c.Length = al.Length()
		}
		c.Index = len(out)
		out = append(out, c)
	}
	return out
}

// FromDXF builds the alignment from the centerline layer of doc.
func FromDXF(doc *dxf.Document, opts Options) (*alignment.Alignment, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	cands := Candidates(doc, opts.Layer)
	switch len(cands) {
	case 0:
		return nil, errors.New(errors.ErrCodeInvalidAlignment, "no centerline entities on layer %s", opts.Layer)
	case 1:
		return alignment.New(cands[0].Vertices, cands[0].Closed)
	}

	if opts.Pick != nil {
		i, err := opts.Pick(cands)
		if err != nil {
			return nil, err
		}
		if i != ChainAll {
			if i < 0 || i >= len(cands) {
				return nil, errors.New(errors.ErrCodeInvalidInput, "candidate %d out of range", i)
			}
			return alignment.New(cands[i].Vertices, cands[i].Closed)
		}
	}

	pieces := make([][]alignment.Vertex, len(cands))
	for i, c := range cands {
		if c.Closed {
			return nil, errors.New(errors.ErrCodeInvalidAlignment, "closed %s %s cannot be chained with other pieces", c.Type, c.Handle)
		}
		pieces[i] = c.Vertices
	}
	vs, closed, err := alignment.Chain(pieces, opts.Tolerance)
	if err != nil {
		return nil, err
	}
	return alignment.New(vs, closed)
}

// FromGeoJSON builds the alignment from the first LineString in a
// FeatureCollection, Feature or bare geometry. A MultiLineString contributes
// its first line.
func FromGeoJSON(data []byte) (*alignment.Alignment, error) {
	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil {
		geoms = append(geoms, f.Geometry)
	} else if g, err := geojson.UnmarshalGeometry(data); err == nil {
		geoms = append(geoms, g.Geometry())
	} else {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode GeoJSON")
	}

	for _, g := range geoms {
		var ls orb.LineString
		switch v := g.(type) {
		case orb.LineString:
			ls = v
		case orb.MultiLineString:
			if len(v) > 0 {
				ls = v[0]
			}
		}
		if len(ls) == 0 {
			continue
		}
		vs := make([]alignment.Vertex, len(ls))
		for i, p := range ls {
			vs[i] = alignment.Vertex{Point: p}
		}
		return alignment.New(vs, false)
	}
	return nil, errors.New(errors.ErrCodeInvalidAlignment, "no LineString in GeoJSON input")
}

// Load reads an alignment from a .dxf or .geojson/.json file.
func Load(path string, opts Options) (*alignment.Alignment, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dxf":
		doc, err := dxf.Open(path)
		if err != nil {
			return nil, err
		}
		return FromDXF(doc, opts)
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
		}
		return FromGeoJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported centerline file %s (want .dxf or .geojson)", path)
	}
}
