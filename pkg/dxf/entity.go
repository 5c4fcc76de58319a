package dxf

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Entity is a drawing entity that can be read from or added to a document.
type Entity interface {
	EntityType() string
	EntityLayer() string
	encode(e *encoder)
}

// Vertex is a polyline vertex. Bulge describes the segment starting here:
// the tangent of a quarter of its included angle, positive counter-clockwise.
type Vertex struct {
	Point orb.Point
	Bulge float64
}

// Line is a LINE entity.
type Line struct {
	Layer, Handle string
	Start, End    orb.Point
}

// Arc is an ARC entity. Angles are degrees, counter-clockwise.
type Arc struct {
	Layer, Handle        string
	Center               orb.Point
	Radius               float64
	StartAngle, EndAngle float64
}

// Circle is a CIRCLE entity.
type Circle struct {
	Layer, Handle string
	Center        orb.Point
	Radius        float64
}

// Polyline is an LWPOLYLINE, or a 2D/3D POLYLINE with its VERTEX records.
type Polyline struct {
	Layer, Handle string
	Vertices      []Vertex
	Closed        bool
}

// Insert is a block reference. Rotation is in degrees.
type Insert struct {
	Layer, Handle string
	Block         string
	Point         orb.Point
	Rotation      float64
	Scale         float64 // uniform scale, 1 when zero

	// Attribs holds the ATTRIB records that follow the reference. They are
	// read-only on added inserts; use [Document.SetAttrib] on read ones.
	Attribs []Attrib
}

// Attrib is a block attribute value.
type Attrib struct {
	Tag   string
	Value string
	index int // pair index of the value in the source document
}

// Text is a single-line TEXT entity.
type Text struct {
	Layer, Handle string
	Point         orb.Point
	Height        float64
	Rotation      float64
	Value         string
}

// MText is a multi-line text entity anchored at its top-left corner.
// Lines are separated by "\n". R12 drawings receive one TEXT per line.
type MText struct {
	Layer, Handle string
	Point         orb.Point
	Height        float64
	Width         float64
	Rotation      float64
	Value         string
}

// Unknown is any entity without a decoder.
type Unknown struct {
	Type, Layer, Handle string
}

func (Line) EntityType() string      { return "LINE" }
func (Arc) EntityType() string       { return "ARC" }
func (Circle) EntityType() string    { return "CIRCLE" }
func (Polyline) EntityType() string  { return "POLYLINE" }
func (Insert) EntityType() string    { return "INSERT" }
func (Text) EntityType() string      { return "TEXT" }
func (MText) EntityType() string     { return "MTEXT" }
func (u Unknown) EntityType() string { return u.Type }

func (e Line) EntityLayer() string     { return e.Layer }
func (e Arc) EntityLayer() string      { return e.Layer }
func (e Circle) EntityLayer() string   { return e.Layer }
func (e Polyline) EntityLayer() string { return e.Layer }
func (e Insert) EntityLayer() string   { return e.Layer }
func (e Text) EntityLayer() string     { return e.Layer }
func (e MText) EntityLayer() string    { return e.Layer }
func (e Unknown) EntityLayer() string  { return e.Layer }

// Attrib returns the attribute with the given tag, compared case-insensitively.
func (e Insert) Attrib(tag string) (Attrib, bool) {
	for _, a := range e.Attribs {
		if strings.EqualFold(a.Tag, tag) {
			return a, true
		}
	}
	return Attrib{}, false
}

// record is one entity record: pairs[start] is its "0 TYPE" pair.
type record struct {
	typ        string
	start, end int
}

func splitRecords(pairs []Pair, from, to int) []record {
	var out []record
	for i := from; i < to; i++ {
		if pairs[i].Code != 0 {
			continue
		}
		if n := len(out); n > 0 {
			out[n-1].end = i
		}
		out = append(out, record{typ: pairs[i].Value, start: i, end: to})
	}
	return out
}

// Entities decodes the ENTITIES section of the drawing as read.
// Additions made through [Document.Add] are not included.
func (d *Document) Entities() []Entity {
	s, ok := d.sections["ENTITIES"]
	if !ok {
		return nil
	}
	return d.decode(splitRecords(d.pairs, s.start+2, s.end))
}

// decode turns entity records into entities, folding VERTEX and ATTRIB
// records into their owners.
func (d *Document) decode(recs []record) []Entity {
	var out []Entity
	for k := 0; k < len(recs); k++ {
		r := recs[k]
		body := d.pairs[r.start+1 : r.end]
		switch r.typ {
		case "LINE":
			out = append(out, decodeLine(body))
		case "ARC":
			out = append(out, decodeArc(body))
		case "CIRCLE":
			out = append(out, decodeCircle(body))
		case "LWPOLYLINE":
			out = append(out, decodeLWPolyline(body))
		case "TEXT":
			out = append(out, decodeText(body))
		case "MTEXT":
			out = append(out, decodeMText(body))
		case "POLYLINE":
			j := k + 1
			for j < len(recs) && recs[j].typ == "VERTEX" {
				j++
			}
			out = append(out, d.decodePolyline(body, recs[k+1:j]))
			if j < len(recs) && recs[j].typ == "SEQEND" {
				j++
			}
			k = j - 1
		case "INSERT":
			j := k + 1
			for j < len(recs) && recs[j].typ == "ATTRIB" {
				j++
			}
			out = append(out, d.decodeInsert(r, recs[k+1:j]))
			if j < len(recs) && recs[j].typ == "SEQEND" {
				j++
			}
			k = j - 1
		default:
			u := Unknown{Type: r.typ}
			common(body, &u.Layer, &u.Handle)
			out = append(out, u)
		}
	}
	return out
}

func num(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

func common(body []Pair, layer, handle *string) {
	for _, p := range body {
		switch p.Code {
		case 8:
			*layer = p.Value
		case 5:
			*handle = p.Value
		}
	}
}

// mirrored reports an extrusion direction of (0, 0, -1): the entity's
// coordinates are in an object coordinate system with X flipped.
func mirrored(body []Pair) bool {
	for _, p := range body {
		if p.Code == 230 {
			return num(p.Value) < 0
		}
	}
	return false
}

func decodeLine(body []Pair) Line {
	var e Line
	common(body, &e.Layer, &e.Handle)
	for _, p := range body {
		switch p.Code {
		case 10:
			e.Start[0] = num(p.Value)
		case 20:
			e.Start[1] = num(p.Value)
		case 11:
			e.End[0] = num(p.Value)
		case 21:
			e.End[1] = num(p.Value)
		}
	}
	return e
}

func decodeArc(body []Pair) Arc {
	var e Arc
	common(body, &e.Layer, &e.Handle)
	for _, p := range body {
		switch p.Code {
		case 10:
			e.Center[0] = num(p.Value)
		case 20:
			e.Center[1] = num(p.Value)
		case 40:
			e.Radius = num(p.Value)
		case 50:
			e.StartAngle = num(p.Value)
		case 51:
			e.EndAngle = num(p.Value)
		}
	}
	if mirrored(body) {
		e.Center[0] = -e.Center[0]
		e.StartAngle, e.EndAngle = normDeg(180-e.EndAngle), normDeg(180-e.StartAngle)
	}
	return e
}

func decodeCircle(body []Pair) Circle {
	var e Circle
	common(body, &e.Layer, &e.Handle)
	for _, p := range body {
		switch p.Code {
		case 10:
			e.Center[0] = num(p.Value)
		case 20:
			e.Center[1] = num(p.Value)
		case 40:
			e.Radius = num(p.Value)
		}
	}
	if mirrored(body) {
		e.Center[0] = -e.Center[0]
	}
	return e
}

func decodeLWPolyline(body []Pair) Polyline {
	var e Polyline
	common(body, &e.Layer, &e.Handle)
	for _, p := range body {
		n := len(e.Vertices)
		switch p.Code {
		case 70:
			e.Closed = int(num(p.Value))&1 != 0
		case 10:
			e.Vertices = append(e.Vertices, Vertex{Point: orb.Point{num(p.Value), 0}})
		case 20:
			if n > 0 {
				e.Vertices[n-1].Point[1] = num(p.Value)
			}
		case 42:
			if n > 0 {
				e.Vertices[n-1].Bulge = num(p.Value)
			}
		}
	}
	if mirrored(body) {
		mirrorVertices(e.Vertices)
	}
	return e
}

// decodePolyline reads a POLYLINE header and its VERTEX records. Polygon
// meshes and polyface meshes are returned as [Unknown].
func (d *Document) decodePolyline(body []Pair, vertices []record) Entity {
	var e Polyline
	common(body, &e.Layer, &e.Handle)
	flags := 0
	for _, p := range body {
		if p.Code == 70 {
			flags = int(num(p.Value))
		}
	}
	if flags&(16|64) != 0 {
		return Unknown{Type: "POLYLINE", Layer: e.Layer, Handle: e.Handle}
	}
	e.Closed = flags&1 != 0

	for _, r := range vertices {
		var v Vertex
		vflags := 0
		for _, p := range d.pairs[r.start+1 : r.end] {
			switch p.Code {
			case 10:
				v.Point[0] = num(p.Value)
			case 20:
				v.Point[1] = num(p.Value)
			case 42:
				v.Bulge = num(p.Value)
			case 70:
				vflags = int(num(p.Value))
			}
		}
		// Spline frame control points are not on the curve.
		if vflags&16 != 0 {
			continue
		}
		e.Vertices = append(e.Vertices, v)
	}
	if mirrored(body) {
		mirrorVertices(e.Vertices)
	}
	return e
}

func mirrorVertices(vs []Vertex) {
	for i := range vs {
		vs[i].Point[0] = -vs[i].Point[0]
		vs[i].Bulge = -vs[i].Bulge
	}
}

func (d *Document) decodeInsert(r record, attribs []record) Insert {
	body := d.pairs[r.start+1 : r.end]
	e := Insert{Scale: 1}
	common(body, &e.Layer, &e.Handle)
	for _, p := range body {
		switch p.Code {
		case 2:
			e.Block = p.Value
		case 10:
			e.Point[0] = num(p.Value)
		case 20:
			e.Point[1] = num(p.Value)
		case 41:
			e.Scale = num(p.Value)
		case 50:
			e.Rotation = num(p.Value)
		}
	}
	if mirrored(body) {
		e.Point[0] = -e.Point[0]
		e.Rotation = normDeg(180 - e.Rotation)
	}

	for _, ar := range attribs {
		a := Attrib{index: -1}
		for i := ar.start + 1; i < ar.end; i++ {
			switch d.pairs[i].Code {
			case 2:
				a.Tag = d.pairs[i].Value
			case 1:
				a.Value = d.pairs[i].Value
				a.index = i
			}
		}
		if a.index > 0 {
			e.Attribs = append(e.Attribs, a)
		}
	}
	return e
}

func decodeText(body []Pair) Text {
	var e Text
	common(body, &e.Layer, &e.Handle)
	for _, p := range body {
		switch p.Code {
		case 10:
			e.Point[0] = num(p.Value)
		case 20:
			e.Point[1] = num(p.Value)
		case 40:
			e.Height = num(p.Value)
		case 50:
			e.Rotation = num(p.Value)
		case 1:
			e.Value = p.Value
		}
	}
	return e
}

func decodeMText(body []Pair) MText {
	var e MText
	common(body, &e.Layer, &e.Handle)
	var chunks strings.Builder
	var dir orb.Point
	for _, p := range body {
		switch p.Code {
		case 10:
			e.Point[0] = num(p.Value)
		case 20:
			e.Point[1] = num(p.Value)
		case 40:
			e.Height = num(p.Value)
		case 41:
			e.Width = num(p.Value)
		case 50:
			e.Rotation = num(p.Value)
		case 11:
			dir[0] = num(p.Value)
		case 21:
			dir[1] = num(p.Value)
		case 3, 1:
			chunks.WriteString(p.Value)
		}
	}
	if dir != (orb.Point{}) {
		e.Rotation = normDeg(math.Atan2(dir[1], dir[0]) * 180 / math.Pi)
	}
	e.Value = strings.ReplaceAll(chunks.String(), `\P`, "\n")
	return e
}

func normDeg(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
