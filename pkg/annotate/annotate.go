// Package annotate draws device placements into a CAD drawing: one block
// reference per device, and legend callouts with a leader, a legend symbol
// and a text label.
package annotate

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

const (
	// LegendLayer holds leaders, legend symbols and labels.
	LegendLayer = "DEVICE_LEGEND"

	// LegendSuffix names the legend block of a device block.
	LegendSuffix = "_TL"

	layerPrefix = "DEVICE_"
)

// Options configures [Devices] and [Legends]. Lengths are drawing units.
type Options struct {
	SymbolSize   float64       // default symbol diameter, 4 when zero
	LeaderLength float64       // 15 when zero
	TextHeight   float64       // 2.5 when zero
	Source       *dxf.Document // legend blocks are imported from here when set
}

func (o *Options) setDefaults() {
	if o.SymbolSize <= 0 {
		o.SymbolSize = 4
	}
	if o.LeaderLength <= 0 {
		o.LeaderLength = 15
	}
	if o.TextHeight <= 0 {
		o.TextHeight = 2.5
	}
}

// DeviceLayer returns the layer of a device category.
func DeviceLayer(category string) string {
	return layerPrefix + strings.ToUpper(strings.Join(strings.Fields(category), "_"))
}

// Devices inserts one block reference per placement on the layer of its
// category. Blocks the drawing does not define get a default symbol: a
// circle with a cross.
func Devices(doc *dxf.Document, ps []layout.Placement, opts Options) error {
	opts.setDefaults()
	for _, p := range ps {
		if doc.HasBlock(p.Block) {
			continue
		}
		if err := doc.AddBlock(p.Block, orb.Point{}, symbol(opts.SymbolSize)...); err != nil {
			return err
		}
	}

	ents := make([]dxf.Entity, 0, len(ps))
	for _, p := range ps {
		ents = append(ents, dxf.Insert{
			Layer:    DeviceLayer(p.Category),
			Block:    p.Block,
			Point:    p.Point(),
			Rotation: p.Rotation,
		})
	}
	return doc.Add(ents...)
}

func symbol(size float64) []dxf.Entity {
	r := size / 2
	return []dxf.Entity{
		dxf.Circle{Layer: "0", Radius: r},
		dxf.Line{Layer: "0", Start: orb.Point{-r, 0}, End: orb.Point{r, 0}},
		dxf.Line{Layer: "0", Start: orb.Point{0, -r}, End: orb.Point{0, r}},
	}
}

// Legends draws a callout for each placement: a leader from the device
// along the outward normal of the road, the "<block>_TL" legend block at its
// end, and a label with name, chainage and side. Left devices lead to the
// left, all others to the right. Legend blocks missing from the drawing and
// from opts.Source are replaced by a circle and reported as warnings.
func Legends(doc *dxf.Document, al *alignment.Alignment, ps []layout.Placement, opts Options) ([]errors.Warning, error) {
	if al == nil {
		return nil, errors.New(errors.ErrCodeInvalidAlignment, "no alignment")
	}
	opts.setDefaults()
	doc.AddLayer(LegendLayer, dxf.DefaultColor)

	var needed []string
	seen := make(map[string]bool)
	for _, p := range ps {
		name := p.Block + LegendSuffix
		if !seen[strings.ToUpper(name)] {
			seen[strings.ToUpper(name)] = true
			needed = append(needed, name)
		}
	}
	if opts.Source != nil {
		if _, err := doc.ImportBlocks(opts.Source, needed...); err != nil {
			return nil, err
		}
	}
	var warnings []errors.Warning
	for _, name := range needed {
		if !doc.HasBlock(name) {
			warnings = append(warnings, errors.Warnf(errors.ErrCodeNotFound, name, "legend block is not defined, drawing a circle"))
		}
	}

	h := opts.TextHeight
	var ents []dxf.Entity
	for _, p := range ps {
		f, err := al.At(p.Distance)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", p.Index, err)
		}
		n := f.Normal()
		if p.Side != layout.SideLeft {
			n = orb.Point{-n[0], -n[1]}
		}
		dev := p.Point()
		at := orb.Point{dev[0] + n[0]*opts.LeaderLength, dev[1] + n[1]*opts.LeaderLength}
		rot := f.Tangent * 180 / math.Pi

		if name := p.Block + LegendSuffix; doc.HasBlock(name) {
			ents = append(ents, dxf.Insert{Layer: LegendLayer, Block: name, Point: at, Rotation: rot})
		} else {
			ents = append(ents, dxf.Circle{Layer: LegendLayer, Center: at, Radius: 2})
		}
		ents = append(ents, dxf.Line{Layer: LegendLayer, Start: dev, End: at})

		// Label sits above the legend in the road's frame.
		up := orb.Point{-math.Sin(f.Tangent) * 1.5 * h, math.Cos(f.Tangent) * 1.5 * h}
		ents = append(ents, dxf.MText{
			Layer:    LegendLayer,
			Point:    orb.Point{at[0] + up[0], at[1] + up[1]},
			Height:   h,
			Rotation: rot,
			Value:    label(p),
		})
	}
	if err := doc.Add(ents...); err != nil {
		return nil, err
	}
	return warnings, nil
}

func label(p layout.Placement) string {
	name := p.Label
	if name == "" {
		name = p.Category
	}
	return fmt.Sprintf("Name: %s\nStation: %s\nSide: %s", name, p.Chainage, p.Side)
}
