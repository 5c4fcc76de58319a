package dxf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/errors"
)

// viewportLocked is the VIEWPORT status flag that locks the display scale.
const viewportLocked = 16384

// Layout is a paper space sheet with one viewport onto model space.
// Paper coordinates are millimetres measured from the lower-left corner of
// the printable area, which starts Margin in from the paper edge.
type Layout struct {
	Name        string
	PaperWidth  float64 // mm
	PaperHeight float64 // mm
	Margin      float64 // mm, on all four sides
	View        Viewport
}

// Viewport is a paper space window showing part of model space.
type Viewport struct {
	Center     orb.Point // paper space
	Width      float64   // paper space
	Height     float64
	ViewCenter orb.Point // model space point shown at Center
	ViewHeight float64   // model units spanned by Height
	Twist      float64   // degrees
	Locked     bool
}

// layoutIndex locates the layout dictionary in the OBJECTS section.
type layoutIndex struct {
	root        string // root dictionary handle, empty if absent
	rootEnd     int    // index just after the root dictionary record
	dict        string // ACAD_LAYOUT dictionary handle, empty if absent
	dictEnd     int
	created     bool // dict was allocated by AddLayout
	rootCreated bool
	names       map[string]bool
	count       int
	entries     []Pair // new ACAD_LAYOUT entries
	objects     []Pair // new LAYOUT objects
	rootNew     []Pair // new root dictionary pairs or its ACAD_LAYOUT entry
}

func (d *Document) indexObjects() {
	d.layouts = layoutIndex{names: make(map[string]bool)}
	s, ok := d.sections["OBJECTS"]
	if !ok {
		return
	}
	recs := splitRecords(d.pairs, s.start+2, s.end)
	for _, r := range recs {
		if r.typ == "DICTIONARY" && d.layouts.root == "" {
			d.layouts.root, _ = d.lookup(r.start, r.end, 5)
			d.layouts.rootEnd = r.end
			body := d.pairs[r.start+1 : r.end]
			for i := 0; i+1 < len(body); i++ {
				if body[i].Code == 3 && body[i].Value == "ACAD_LAYOUT" && body[i+1].Code == 350 {
					d.layouts.dict = body[i+1].Value
				}
			}
		}
	}
	for _, r := range recs {
		switch r.typ {
		case "DICTIONARY":
			if h, _ := d.lookup(r.start, r.end, 5); d.layouts.dict != "" && h == d.layouts.dict {
				d.layouts.dictEnd = r.end
			}
		case "LAYOUT":
			l, _ := decodeLayout(d.pairs[r.start+1 : r.end])
			d.layouts.names[strings.ToUpper(l.Name)] = true
			d.layouts.count++
		}
	}
	if d.layouts.dict != "" && d.layouts.dictEnd == 0 {
		// Dangling pointer: treat the dictionary as missing.
		d.layouts.dict = ""
	}
}

// SupportsLayouts reports whether layouts can be added. Named paper space
// layouts need an AC1015 (R2000) or later drawing with a block record table.
func (d *Document) SupportsLayouts() bool {
	return d.version >= R2000 && d.blockTab.found
}

// HasLayout reports whether a layout exists or has been added.
func (d *Document) HasLayout(name string) bool { return d.layouts.names[strings.ToUpper(name)] }

// AddLayout adds a paper space layout holding the overall paper viewport
// and l.View.
func (d *Document) AddLayout(l Layout) error {
	if !d.SupportsLayouts() {
		return errors.New(errors.ErrCodeUnsupported, "%s drawings have no named layouts", d.version)
	}
	switch {
	case l.Name == "" || strings.HasPrefix(l.Name, "*") || strings.EqualFold(l.Name, "Model"):
		return errors.New(errors.ErrCodeInvalidDrawing, "invalid layout name %q", l.Name)
	case d.HasLayout(l.Name):
		return errors.New(errors.ErrCodeInvalidDrawing, "layout %s already exists", l.Name)
	case !(l.PaperWidth > 2*l.Margin) || !(l.PaperHeight > 2*l.Margin) || l.Margin < 0:
		return errors.New(errors.ErrCodeInvalidDrawing, "layout %s: paper %gx%g mm does not fit %g mm margins",
			l.Name, l.PaperWidth, l.PaperHeight, l.Margin)
	case !(l.View.Width > 0) || !(l.View.Height > 0) || !(l.View.ViewHeight > 0):
		return errors.New(errors.ErrCodeInvalidDrawing, "layout %s: viewport needs a positive size", l.Name)
	}

	dict := d.layoutDict()
	block := d.paperBlockName()
	record, layout := d.nextHandle(), d.nextHandle()

	r := &encoder{doc: d, out: &d.newRecords}
	r.pair(0, "BLOCK_RECORD")
	r.pair(5, record)
	if d.blockTab.handle != "" {
		r.pair(330, d.blockTab.handle)
	}
	r.pair(100, "AcDbSymbolTableRecord")
	r.pair(100, "AcDbBlockTableRecord")
	r.pair(2, block)
	r.pair(340, layout)
	d.nRecords++

	w, h, m := l.PaperWidth, l.PaperHeight, l.Margin
	paper := orb.Point{w/2 - m, h/2 - m}
	overall := Viewport{Center: paper, Width: w, Height: h, ViewCenter: paper, ViewHeight: h}

	e := &encoder{doc: d, out: &d.newBlocks, owner: record, paper: true}
	e.begin("BLOCK", "0", "AcDbBlockBegin")
	e.pair(2, block)
	e.int(70, 0)
	e.point(10, orb.Point{})
	e.pair(3, block)
	e.pair(1, "")
	overall.encode(e, 1)
	active := d.handseed // handle of the next entity, the sheet viewport
	l.View.encode(e, 2)
	e.begin("ENDBLK", "0", "AcDbBlockEnd")

	o := &encoder{doc: d, out: &d.layouts.objects}
	o.pair(0, "LAYOUT")
	o.pair(5, layout)
	o.pair(330, dict)
	o.pair(100, "AcDbPlotSettings")
	o.pair(1, "")
	o.pair(2, "none_device")
	o.pair(4, fmt.Sprintf("USER_(%.2f_x_%.2f_MM)", w, h))
	o.pair(6, "")
	for code := 40; code <= 43; code++ {
		o.float(code, m)
	}
	o.float(44, w)
	o.float(45, h)
	for _, code := range []int{46, 47, 48, 49, 140, 141} {
		o.float(code, 0)
	}
	o.float(142, 1)
	o.float(143, 1)
	o.int(70, 0)
	o.int(72, 1) // millimetres
	o.int(73, 0)
	o.int(74, 5) // plot the layout
	o.pair(7, "")
	o.int(75, 16) // 1:1
	o.float(147, 1)
	o.float(148, 0)
	o.float(149, 0)
	o.pair(100, "AcDbLayout")
	o.pair(1, l.Name)
	o.int(70, 1)
	o.int(71, d.layouts.count+1)
	o.point2(10, orb.Point{-m, -m})
	o.point2(11, orb.Point{w - m, h - m})
	o.point(12, orb.Point{})
	o.point(14, orb.Point{-m, -m})
	o.point(15, orb.Point{w - m, h - m})
	o.float(146, 0)
	o.point(13, orb.Point{})
	o.point(16, orb.Point{1, 0})
	o.point(17, orb.Point{0, 1})
	o.int(76, 1)
	o.pair(330, record)
	o.pair(331, strings.ToUpper(strconv.FormatUint(active, 16)))

	d.layouts.entries = append(d.layouts.entries, Pair{3, l.Name}, Pair{350, layout})
	d.layouts.names[strings.ToUpper(l.Name)] = true
	d.layouts.count++
	d.blocks[strings.ToUpper(block)] = true
	return nil
}

// layoutDict returns the ACAD_LAYOUT dictionary handle, allocating the
// dictionary, and the root one, when the drawing has none.
func (d *Document) layoutDict() string {
	if d.layouts.dict != "" {
		return d.layouts.dict
	}
	if d.layouts.root == "" {
		d.layouts.root = d.nextHandle()
		d.layouts.rootCreated = true
		d.layouts.rootNew = []Pair{
			{0, "DICTIONARY"}, {5, d.layouts.root}, {330, "0"}, {100, "AcDbDictionary"}, {281, "1"},
		}
	}
	d.layouts.dict = d.nextHandle()
	d.layouts.created = true
	d.layouts.rootNew = append(d.layouts.rootNew, Pair{3, "ACAD_LAYOUT"}, Pair{350, d.layouts.dict})
	return d.layouts.dict
}

// paperBlockName returns the first unused *Paper_Space<n> name.
func (d *Document) paperBlockName() string {
	for n := 0; ; n++ {
		name := fmt.Sprintf("*Paper_Space%d", n)
		if !d.HasBlock(name) {
			return name
		}
	}
}

// planObjects adds the pending layout dictionary entries and objects to out.
func (d *Document) planObjects(out map[int][]Pair, eof int) {
	li := &d.layouts
	if len(li.objects) == 0 {
		return
	}
	var objs []Pair
	if li.created {
		objs = append(objs, Pair{0, "DICTIONARY"}, Pair{5, li.dict}, Pair{330, li.root},
			Pair{100, "AcDbDictionary"}, Pair{281, "1"})
		objs = append(objs, li.entries...)
	}
	objs = append(objs, li.objects...)

	s, ok := d.sections["OBJECTS"]
	if !ok {
		body := append([]Pair{{0, "SECTION"}, {2, "OBJECTS"}}, li.rootNew...)
		body = append(body, objs...)
		out[eof] = append(out[eof], append(body, Pair{0, "ENDSEC"})...)
		return
	}
	switch {
	case li.rootCreated:
		at := s.start + 2
		out[at] = append(out[at], li.rootNew...)
	case li.created:
		out[li.rootEnd] = append(out[li.rootEnd], li.rootNew...)
	default:
		out[li.dictEnd] = append(out[li.dictEnd], li.entries...)
	}
	out[s.end] = append(out[s.end], objs...)
}

func (v Viewport) encode(e *encoder, id int) {
	e.begin("VIEWPORT", "0", "AcDbViewport")
	e.point(10, v.Center)
	e.float(40, v.Width)
	e.float(41, v.Height)
	e.int(68, id)
	e.int(69, id)
	e.point2(12, orb.Point{})
	e.point2(13, orb.Point{})
	e.point2(14, orb.Point{10, 10})
	e.point2(15, orb.Point{10, 10})
	e.float(16, 0)
	e.float(26, 0)
	e.float(36, 1)
	e.point(17, v.ViewCenter)
	e.float(42, 50)
	e.float(43, 0)
	e.float(44, 0)
	e.float(45, v.ViewHeight)
	e.float(50, 0)
	e.float(51, v.Twist)
	e.int(72, 100)
	flags := 0
	if v.Locked {
		flags |= viewportLocked
	}
	e.int(90, flags)
	e.int(281, 0)
	e.int(71, 1)
	e.int(74, 0)
}

// Layouts decodes the paper space layouts of the drawing as read, with the
// first viewport of each that is not the overall paper view. Additions made
// through [Document.AddLayout] are not included.
func (d *Document) Layouts() []Layout {
	s, ok := d.sections["OBJECTS"]
	if !ok {
		return nil
	}
	var out []Layout
	for _, r := range splitRecords(d.pairs, s.start+2, s.end) {
		if r.typ != "LAYOUT" {
			continue
		}
		l, record := decodeLayout(d.pairs[r.start+1 : r.end])
		if strings.EqualFold(l.Name, "Model") {
			continue
		}
		l.View = d.layoutViewport(record)
		out = append(out, l)
	}
	return out
}

func decodeLayout(body []Pair) (Layout, string) {
	var l Layout
	var record string
	inLayout := false
	for _, p := range body {
		switch {
		case p.Code == 100:
			inLayout = p.Value == "AcDbLayout"
		case !inLayout && p.Code == 40:
			l.Margin = num(p.Value)
		case !inLayout && p.Code == 44:
			l.PaperWidth = num(p.Value)
		case !inLayout && p.Code == 45:
			l.PaperHeight = num(p.Value)
		case inLayout && p.Code == 1:
			l.Name = p.Value
		case inLayout && p.Code == 330:
			record = p.Value
		}
	}
	return l, record
}

// layoutViewport finds the first non-overall viewport owned by the block
// record. Inactive layouts keep their viewports in the block definition,
// the active one in ENTITIES.
func (d *Document) layoutViewport(record string) Viewport {
	for _, name := range []string{"BLOCKS", "ENTITIES"} {
		s, ok := d.sections[name]
		if !ok {
			continue
		}
		for _, r := range splitRecords(d.pairs, s.start+2, s.end) {
			if r.typ != "VIEWPORT" {
				continue
			}
			body := d.pairs[r.start+1 : r.end]
			owner, id := "", 0
			for _, p := range body {
				switch p.Code {
				case 330:
					owner = p.Value
				case 69:
					id, _ = strconv.Atoi(p.Value)
				}
			}
			if owner == record && id > 1 {
				return decodeViewport(body)
			}
		}
	}
	return Viewport{}
}

// decodeViewport reads the view centre as the target plus the view centre
// offset, which is exact for untwisted views and for views centred on
// their target.
func decodeViewport(body []Pair) Viewport {
	var v Viewport
	var offset orb.Point
	for _, p := range body {
		switch p.Code {
		case 10:
			v.Center[0] = num(p.Value)
		case 20:
			v.Center[1] = num(p.Value)
		case 40:
			v.Width = num(p.Value)
		case 41:
			v.Height = num(p.Value)
		case 12:
			offset[0] = num(p.Value)
		case 22:
			offset[1] = num(p.Value)
		case 17:
			v.ViewCenter[0] = num(p.Value)
		case 27:
			v.ViewCenter[1] = num(p.Value)
		case 45:
			v.ViewHeight = num(p.Value)
		case 51:
			v.Twist = num(p.Value)
		case 90:
			flags, _ := strconv.Atoi(p.Value)
			v.Locked = flags&viewportLocked != 0
		}
	}
	v.ViewCenter = orb.Point{v.ViewCenter[0] + offset[0], v.ViewCenter[1] + offset[1]}
	return v
}
