package dxf

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/errors"
)

// DefaultColor is the ACI color given to layers created implicitly.
const DefaultColor = 7

// mtextChunk is the longest value a single MTEXT group may carry.
const mtextChunk = 250

type encoder struct {
	doc   *Document
	out   *[]Pair
	owner string // owner handle written as group 330 in modern drawings
	paper bool   // entities belong to a paper space layout
}

func (e *encoder) pair(code int, v string) { *e.out = append(*e.out, Pair{Code: code, Value: v}) }

func (e *encoder) int(code, v int) { e.pair(code, strconv.Itoa(v)) }

func (e *encoder) float(code int, v float64) {
	if v == 0 {
		v = 0 // no negative zero
	}
	e.pair(code, strconv.FormatFloat(v, 'f', -1, 64))
}

func (e *encoder) point2(code int, p orb.Point) {
	e.float(code, p[0])
	e.float(code+10, p[1])
}

func (e *encoder) point(code int, p orb.Point) {
	e.float(code, p[0])
	e.float(code+10, p[1])
	e.float(code+20, 0)
}

// begin writes the common entity prefix: type, handle, owner, layer and
// subclass markers as the drawing version requires.
func (e *encoder) begin(typ, layer string, subclass ...string) {
	e.pair(0, typ)
	if e.doc.handles() {
		e.pair(5, e.doc.nextHandle())
	}
	modern := e.doc.Modern()
	if modern {
		if e.owner != "" {
			e.pair(330, e.owner)
		}
		e.pair(100, "AcDbEntity")
		if e.paper {
			e.int(67, 1)
		}
	}
	if layer == "" {
		layer = "0"
	}
	e.pair(8, layer)
	if modern {
		for _, s := range subclass {
			e.pair(100, s)
		}
	}
}

func (d *Document) handles() bool { return d.Modern() || d.seedIdx >= 0 }

// nextHandle allocates a handle from $HANDSEED, or from above the highest
// handle in the drawing when the header has none.
func (d *Document) nextHandle() string {
	if d.handseed == 0 {
		var top uint64
		for _, p := range d.pairs {
			if p.Code == 5 || p.Code == 105 {
				if v, err := strconv.ParseUint(p.Value, 16, 64); err == nil && v > top {
					top = v
				}
			}
		}
		d.handseed = top + 1
	}
	h := strings.ToUpper(strconv.FormatUint(d.handseed, 16))
	d.handseed++
	return h
}

// AddLayer adds a layer unless one with the same name exists.
func (d *Document) AddLayer(name string, color int) {
	if name == "" || d.HasLayer(name) {
		return
	}
	e := &encoder{doc: d, out: &d.newLayers}
	e.pair(0, "LAYER")
	if d.handles() {
		e.pair(5, d.nextHandle())
	}
	if d.Modern() {
		if d.layerTab.handle != "" {
			e.pair(330, d.layerTab.handle)
		}
		e.pair(100, "AcDbSymbolTableRecord")
		e.pair(100, "AcDbLayerTableRecord")
	}
	e.pair(2, name)
	e.int(70, 0)
	e.int(62, color)
	e.pair(6, "CONTINUOUS")

	d.layers[strings.ToUpper(name)] = true
	d.nLayers++
}

// Add appends entities to model space. Missing layers are created with
// [DefaultColor]. Inserts must reference a defined block.
func (d *Document) Add(ents ...Entity) error {
	if err := d.prepare(ents); err != nil {
		return err
	}
	e := &encoder{doc: d, out: &d.newEnts, owner: d.blockTab.modelRec}
	for _, ent := range ents {
		ent.encode(e)
	}
	return nil
}

// AddBlock defines a block whose insertion base point is base.
func (d *Document) AddBlock(name string, base orb.Point, ents ...Entity) error {
	if name == "" || strings.HasPrefix(name, "*") {
		return errors.New(errors.ErrCodeInvalidDrawing, "invalid block name %q", name)
	}
	if d.HasBlock(name) {
		return errors.New(errors.ErrCodeInvalidDrawing, "block %s is already defined", name)
	}
	if err := d.prepare(ents); err != nil {
		return err
	}

	var record string
	if d.Modern() && d.blockTab.found {
		record = d.nextHandle()
		r := &encoder{doc: d, out: &d.newRecords}
		r.pair(0, "BLOCK_RECORD")
		r.pair(5, record)
		if d.blockTab.handle != "" {
			r.pair(330, d.blockTab.handle)
		}
		r.pair(100, "AcDbSymbolTableRecord")
		r.pair(100, "AcDbBlockTableRecord")
		r.pair(2, name)
		d.nRecords++
	}

	e := &encoder{doc: d, out: &d.newBlocks, owner: record}
	e.begin("BLOCK", "0", "AcDbBlockBegin")
	e.pair(2, name)
	e.int(70, 0)
	e.point(10, base)
	e.pair(3, name)
	if d.Modern() {
		e.pair(1, "")
	}
	for _, ent := range ents {
		ent.encode(e)
	}
	e.begin("ENDBLK", "0", "AcDbBlockEnd")

	d.blocks[strings.ToUpper(name)] = true
	return nil
}

func (d *Document) prepare(ents []Entity) error {
	for _, ent := range ents {
		if _, ok := ent.(Unknown); ok {
			return errors.New(errors.ErrCodeUnsupported, "cannot add %s entities", ent.EntityType())
		}
		if ins, ok := ent.(Insert); ok && !d.HasBlock(ins.Block) {
			return errors.New(errors.ErrCodeInvalidDrawing, "block %s is not defined", ins.Block)
		}
		if l := ent.EntityLayer(); l != "" {
			d.AddLayer(l, DefaultColor)
		}
	}
	return nil
}

func (l Line) encode(e *encoder) {
	e.begin("LINE", l.Layer, "AcDbLine")
	e.point(10, l.Start)
	e.point(11, l.End)
}

func (c Circle) encode(e *encoder) {
	e.begin("CIRCLE", c.Layer, "AcDbCircle")
	e.point(10, c.Center)
	e.float(40, c.Radius)
}

func (a Arc) encode(e *encoder) {
	e.begin("ARC", a.Layer, "AcDbCircle")
	e.point(10, a.Center)
	e.float(40, a.Radius)
	if e.doc.Modern() {
		e.pair(100, "AcDbArc")
	}
	e.float(50, a.StartAngle)
	e.float(51, a.EndAngle)
}

func (p Polyline) encode(e *encoder) {
	flags := 0
	if p.Closed {
		flags = 1
	}
	if e.doc.Modern() {
		e.begin("LWPOLYLINE", p.Layer, "AcDbPolyline")
		e.int(90, len(p.Vertices))
		e.int(70, flags)
		for _, v := range p.Vertices {
			e.float(10, v.Point[0])
			e.float(20, v.Point[1])
			if v.Bulge != 0 {
				e.float(42, v.Bulge)
			}
		}
		return
	}

	e.begin("POLYLINE", p.Layer)
	e.int(66, 1)
	e.point(10, orb.Point{})
	e.int(70, flags)
	for _, v := range p.Vertices {
		e.begin("VERTEX", p.Layer)
		e.point(10, v.Point)
		if v.Bulge != 0 {
			e.float(42, v.Bulge)
		}
	}
	e.begin("SEQEND", p.Layer)
}

func (t Text) encode(e *encoder) {
	e.begin("TEXT", t.Layer, "AcDbText")
	e.point(10, t.Point)
	e.float(40, t.Height)
	e.pair(1, t.Value)
	if t.Rotation != 0 {
		e.float(50, t.Rotation)
	}
	if e.doc.Modern() {
		e.pair(100, "AcDbText")
	}
}

func (m MText) encode(e *encoder) {
	if !e.doc.Modern() {
		for _, t := range m.lines() {
			t.encode(e)
		}
		return
	}

	e.begin("MTEXT", m.Layer, "AcDbMText")
	e.point(10, m.Point)
	e.float(40, m.Height)
	if m.Width > 0 {
		e.float(41, m.Width)
	}
	e.int(71, 1) // attach top left
	v := strings.ReplaceAll(m.Value, "\n", `\P`)
	for len(v) > mtextChunk {
		e.pair(3, v[:mtextChunk])
		v = v[mtextChunk:]
	}
	e.pair(1, v)
	if m.Rotation != 0 {
		e.float(50, m.Rotation)
	}
}

// lines lays the text out as TEXT entities, one per line, top line first.
func (m MText) lines() []Text {
	rad := m.Rotation * math.Pi / 180
	down := orb.Point{math.Sin(rad), -math.Cos(rad)}
	var out []Text
	for i, s := range strings.Split(m.Value, "\n") {
		off := m.Height * (1 + 1.6*float64(i))
		out = append(out, Text{
			Layer:    m.Layer,
			Point:    orb.Point{m.Point[0] + down[0]*off, m.Point[1] + down[1]*off},
			Height:   m.Height,
			Rotation: m.Rotation,
			Value:    s,
		})
	}
	return out
}

func (i Insert) encode(e *encoder) {
	e.begin("INSERT", i.Layer, "AcDbBlockReference")
	e.pair(2, i.Block)
	e.point(10, i.Point)
	s := i.Scale
	if s == 0 {
		s = 1
	}
	if s != 1 {
		e.float(41, s)
		e.float(42, s)
		e.float(43, s)
	}
	if i.Rotation != 0 {
		e.float(50, i.Rotation)
	}
}

func (Unknown) encode(*encoder) {}
