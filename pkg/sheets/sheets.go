// Package sheets plans drawing sheets along a route and renumbers the
// title-block frames of a drawing.
package sheets

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
)

// Sheet defaults: A3 landscape at 1:1000 with 10% overlap.
const (
	DefaultPaperWidth  = 420.0 // mm
	DefaultPaperHeight = 297.0 // mm
	DefaultScale       = 1000.0
	DefaultOverlap     = 0.1
	DefaultPrefix      = "A3_Sec_"

	// FrameLayer holds the sheet outlines drawn by [Draw].
	FrameLayer = "SHEET_FRAME"

	// PageMargin is the plot layout margin on every side, in mm.
	PageMargin = 5.0
)

// Options configures [Plan].
type Options struct {
	PaperWidth  float64  // mm
	PaperHeight float64  // mm
	Scale       float64  // drawing units per paper metre, so 1000 is 1:1000 in metres
	Overlap     *float64 // fraction of the sheet width shared by neighbours, nil for DefaultOverlap
	Prefix      string   // sheet name prefix
}

// Fraction returns a pointer to f for [Options.Overlap].
func Fraction(f float64) *float64 { return &f }

// ValidateAndSetDefaults fills zero values and checks the sheet geometry.
// An explicit zero overlap is kept.
func (o *Options) ValidateAndSetDefaults() error {
	if o.PaperWidth == 0 {
		o.PaperWidth = DefaultPaperWidth
	}
	if o.PaperHeight == 0 {
		o.PaperHeight = DefaultPaperHeight
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Overlap == nil {
		o.Overlap = Fraction(DefaultOverlap)
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.PaperWidth < 0 || o.PaperHeight < 0 || o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "sheet size and scale must be positive")
	}
	if v := *o.Overlap; !(v >= 0 && v < 1) {
		return errors.New(errors.ErrCodeInvalidConfig, "sheet overlap must be in [0, 1), got %v", v)
	}
	return nil
}

// Frame is one sheet window in model space.
type Frame struct {
	Name     string
	Distance float64   // station of the center
	Center   orb.Point // on the centerline
	Rotation float64   // degrees, the road direction at the center
	Width    float64   // model units
	Height   float64
	Scale    float64 // drawing units per paper metre
}

// Plan places sheets along al. The first sheet is centered half a sheet
// width from the start and each next one a width times (1 - overlap)
// further, while the center stays on the route. Routes shorter than half a
// sheet get no sheets.
func Plan(al *alignment.Alignment, opts Options) ([]Frame, error) {
	if al == nil {
		return nil, errors.New(errors.ErrCodeInvalidAlignment, "no alignment")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	width := opts.PaperWidth * opts.Scale / 1000
	height := opts.PaperHeight * opts.Scale / 1000
	step := width * (1 - *opts.Overlap)

	var frames []Frame
	for d := width / 2; d < al.Length(); d += step {
		f, err := al.At(d)
		if err != nil {
			return nil, err
		}
		frames = append(frames, Frame{
			Name:     fmt.Sprintf("%s%03d", opts.Prefix, len(frames)+1),
			Distance: d,
			Center:   f.Point,
			Rotation: f.Tangent * 180 / math.Pi,
			Width:    width,
			Height:   height,
			Scale:    opts.Scale,
		})
	}
	return frames, nil
}

// Ring returns the frame outline, counter-clockwise from the lower-left
// corner in the frame's own orientation.
func (f Frame) Ring() orb.Ring {
	rad := f.Rotation * math.Pi / 180
	u := orb.Point{math.Cos(rad), math.Sin(rad)}
	v := orb.Point{-u[1], u[0]}
	corner := func(a, b float64) orb.Point {
		return orb.Point{f.Center[0] + u[0]*a + v[0]*b, f.Center[1] + u[1]*a + v[1]*b}
	}
	w, h := f.Width/2, f.Height/2
	return orb.Ring{corner(-w, -h), corner(w, -h), corner(w, h), corner(-w, h), corner(-w, -h)}
}

// Contains reports whether p lies inside the frame.
func (f Frame) Contains(p orb.Point) bool {
	return planar.RingContains(f.Ring(), p)
}

// Layout returns the plot layout of the frame: the full sheet with
// [PageMargin] on every side and a locked viewport that shows the frame
// centre at 1:Scale, turned so the road runs across the sheet.
func (f Frame) Layout() dxf.Layout {
	pw, ph := f.Width*1000/f.Scale, f.Height*1000/f.Scale
	w, h := pw-2*PageMargin, ph-2*PageMargin
	return dxf.Layout{
		Name:        f.Name,
		PaperWidth:  pw,
		PaperHeight: ph,
		Margin:      PageMargin,
		View: dxf.Viewport{
			Center:     orb.Point{w / 2, h / 2},
			Width:      w,
			Height:     h,
			ViewCenter: f.Center,
			ViewHeight: h * f.Scale / 1000,
			Twist:      math.Mod(360-f.Rotation, 360),
			Locked:     true,
		},
	}
}

// Draw outlines frames on [FrameLayer] with the sheet name in the
// lower-left corner. Drawings that support named layouts also get one
// plot layout per frame; frames whose layout already exists keep it.
func Draw(doc *dxf.Document, frames []Frame, textHeight float64) error {
	if textHeight <= 0 {
		textHeight = 5
	}
	ents := make([]dxf.Entity, 0, 2*len(frames))
	for _, f := range frames {
		ring := f.Ring()
		vs := make([]dxf.Vertex, 4)
		for i := range vs {
			vs[i] = dxf.Vertex{Point: ring[i]}
		}
		rad := f.Rotation * math.Pi / 180
		in := textHeight
		at := orb.Point{
			ring[0][0] + in*math.Cos(rad) - in*math.Sin(rad),
			ring[0][1] + in*math.Sin(rad) + in*math.Cos(rad),
		}
		ents = append(ents,
			dxf.Polyline{Layer: FrameLayer, Vertices: vs, Closed: true},
			dxf.Text{Layer: FrameLayer, Point: at, Height: textHeight, Rotation: f.Rotation, Value: f.Name},
		)
	}
	doc.AddLayer(FrameLayer, 3)
	if err := doc.Add(ents...); err != nil {
		return err
	}
	if !doc.SupportsLayouts() {
		return nil
	}
	for _, f := range frames {
		if doc.HasLayout(f.Name) {
			continue
		}
		if err := doc.AddLayout(f.Layout()); err != nil {
			return err
		}
	}
	return nil
}
