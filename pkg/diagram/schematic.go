package diagram

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/dxf"
)

// Schematic layers.
const (
	LayerSource    = "DIAGRAM_SOURCE"
	LayerCable     = "DIAGRAM_CABLE"
	LayerDevice    = "DIAGRAM_DEVICE"
	LayerText      = "DIAGRAM_TEXT"
	LayerViolation = "DIAGRAM_VIOLATION"
)

// SchematicOptions sets the schematic geometry in drawing units.
type SchematicOptions struct {
	MetresPerUnit float64 // horizontal scale, 10 when zero
	RowHeight     float64 // distance between circuit rows, 60 when zero
	TextHeight    float64 // 2.5 when zero
}

func (o *SchematicOptions) setDefaults() {
	if o.MetresPerUnit <= 0 {
		o.MetresPerUnit = 10
	}
	if o.RowHeight <= 0 {
		o.RowHeight = 60
	}
	if o.TextHeight <= 0 {
		o.TextHeight = 2.5
	}
}

// Schematic draws g as a new DXF drawing. Each circuit is a row; devices
// hang below the trunk at their station.
func Schematic(g *Graph, opts SchematicOptions) (*dxf.Document, error) {
	opts.setDefaults()
	doc := dxf.New()
	doc.AddLayer(LayerSource, 2)
	doc.AddLayer(LayerCable, 4)
	doc.AddLayer(LayerDevice, 7)
	doc.AddLayer(LayerText, 7)
	doc.AddLayer(LayerViolation, 1)

	nodes := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	byCircuit := make(map[string][]Edge)
	for _, e := range g.Edges {
		byCircuit[e.Circuit] = append(byCircuit[e.Circuit], e)
	}

	h := opts.TextHeight
	xOf := func(d float64) float64 { return d / opts.MetresPerUnit }
	var ents []dxf.Entity
	for row, c := range g.Circuits {
		y := -float64(row) * opts.RowHeight
		src := nodes[sourceID(c.Source)]
		sx := xOf(src.Distance)

		ents = append(ents,
			box(LayerSource, orb.Point{sx, y}, 4*h),
			dxf.Text{Layer: LayerText, Point: orb.Point{sx - 2*h, y + 3*h}, Height: h, Value: src.Label},
			dxf.Text{Layer: pick(c.Violation, LayerText), Point: orb.Point{sx - 2*h, y + 5*h}, Height: h, Value: circuitTitle(g.Kind, c)},
		)
		for _, e := range byCircuit[c.Name] {
			from, to := nodes[e.From], nodes[e.To]
			layer := pick(e.Violation, LayerCable)
			if e.Kind == EdgeTrunk {
				ents = append(ents, dxf.Line{Layer: layer, Start: orb.Point{xOf(from.Distance), y}, End: orb.Point{xOf(to.Distance), y}})
				continue
			}
			x := xOf(to.Distance)
			dy := y - 6*h
			ents = append(ents,
				dxf.Line{Layer: layer, Start: orb.Point{x, y}, End: orb.Point{x, dy + h}},
				dxf.Circle{Layer: pick(to.Violation, LayerDevice), Center: orb.Point{x, dy}, Radius: h},
				dxf.MText{Layer: pick(to.Violation, LayerText), Point: orb.Point{x - h, dy - 1.5*h}, Height: h * 0.8,
					Value: deviceText(g.Kind, to)},
			)
		}
	}
	if err := doc.Add(ents...); err != nil {
		return nil, err
	}
	return doc, nil
}

func pick(violation bool, layer string) string {
	if violation {
		return LayerViolation
	}
	return layer
}

func box(layer string, c orb.Point, size float64) dxf.Polyline {
	d := size / 2
	return dxf.Polyline{Layer: layer, Closed: true, Vertices: []dxf.Vertex{
		{Point: orb.Point{c[0] - d, c[1] - d}},
		{Point: orb.Point{c[0] + d, c[1] - d}},
		{Point: orb.Point{c[0] + d, c[1] + d}},
		{Point: orb.Point{c[0] - d, c[1] + d}},
	}}
}

func circuitTitle(kind Kind, c Circuit) string {
	if kind == KindNetwork {
		return fmt.Sprintf("%s  %s  %d cores  %.1f m", c.Name, c.Conductor, c.Cores, c.Length)
	}
	return fmt.Sprintf("%s  %s  %.1f m  %.2f A  max %.2f%%", c.Name, c.Conductor, c.Length, c.Current, c.MaxPct)
}
