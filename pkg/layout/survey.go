package layout

import (
	"sort"
	"strings"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/station"
)

// Survey projects existing block references onto the alignment.
//
// blocks maps block names (case-insensitive) to device categories. Inserts
// of other blocks are ignored, and every insert is kept when blocks is
// empty, with its block name as the category. The result is sorted by
// station and numbered from 1.
func Survey(al *alignment.Alignment, inserts []dxf.Insert, blocks map[string]string, opts Options) []Placement {
	byName := make(map[string]string, len(blocks))
	for b, cat := range blocks {
		byName[strings.ToUpper(b)] = cat
	}

	var out []Placement
	for _, ins := range inserts {
		cat, ok := byName[strings.ToUpper(ins.Block)]
		if !ok {
			if len(blocks) > 0 {
				continue
			}
			cat = ins.Block
		}

		pr := al.Project(ins.Point)
		side := SideCenter
		switch pr.Side {
		case alignment.SideLeft:
			side = SideLeft
		case alignment.SideRight:
			side = SideRight
		}
		st := opts.StartStation + pr.Distance
		out = append(out, Placement{
			Category: cat,
			Label:    cat,
			Block:    ins.Block,
			Distance: pr.Distance,
			Station:  st,
			Chainage: station.Format(st, opts.Decimals),
			X:        ins.Point[0],
			Y:        ins.Point[1],
			Rotation: normDeg(ins.Rotation),
			Side:     side,
			Offset:   pr.Offset,
			Segment:  segmentName(opts.Segments, pr.Distance, pr.Segment),
			Rule:     -1,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	for i := range out {
		out[i].Index = i + 1
	}
	return out
}

// Inserts returns the block references of a drawing.
func Inserts(doc *dxf.Document) []dxf.Insert {
	var out []dxf.Insert
	for _, e := range doc.Entities() {
		if ins, ok := e.(dxf.Insert); ok {
			out = append(out, ins)
		}
	}
	return out
}
