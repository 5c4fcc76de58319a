package report

import (
	"strconv"
	"strings"

	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

// Row is one line of the location table.
type Row struct {
	Index    int
	Label    string
	Category string
	Chainage string
	Station  float64
	Side     string
	Offset   float64
	X, Y     float64
	Rotation float64
	Segment  string
	Block    string
}

// Column headers of the location table, in order.
const (
	colIndex    = "No."
	colLabel    = "Device"
	colCategory = "Category"
	colChainage = "Chainage"
	colStation  = "Station (m)"
	colSide     = "Side"
	colOffset   = "Offset (m)"
	colX        = "X"
	colY        = "Y"
	colRotation = "Rotation (deg)"
	colSegment  = "Segment"
	colBlock    = "Block"
)

// Columns lists the location table headers.
var Columns = []string{
	colIndex, colLabel, colCategory, colChainage, colStation, colSide,
	colOffset, colX, colY, colRotation, colSegment, colBlock,
}

var required = []string{colCategory, colStation, colX, colY}

// Rows flattens placements into table rows, keeping their order.
func Rows(ps []layout.Placement) []Row {
	out := make([]Row, len(ps))
	for i, p := range ps {
		out[i] = Row{
			Index:    p.Index,
			Label:    p.Label,
			Category: p.Category,
			Chainage: p.Chainage,
			Station:  p.Station,
			Side:     p.Side.String(),
			Offset:   p.Offset,
			X:        p.X,
			Y:        p.Y,
			Rotation: p.Rotation,
			Segment:  p.Segment,
			Block:    p.Block,
		}
	}
	return out
}

// values returns the cells of r in [Columns] order.
func (r Row) values() []any {
	return []any{
		r.Index, r.Label, r.Category, r.Chainage, r.Station, r.Side,
		r.Offset, r.X, r.Y, r.Rotation, r.Segment, r.Block,
	}
}

// record returns the cells of r as text, floats in shortest exact form.
func (r Row) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		strconv.Itoa(r.Index), r.Label, r.Category, r.Chainage, f(r.Station), r.Side,
		f(r.Offset), f(r.X), f(r.Y), f(r.Rotation), r.Segment, r.Block,
	}
}

// header maps column names to positions and checks the required ones.
type header map[string]int

func parseHeader(cells []string) (header, error) {
	h := make(header)
	for i, c := range cells {
		h[strings.ToLower(strings.TrimSpace(c))] = i
	}
	for _, name := range required {
		if _, ok := h[strings.ToLower(name)]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "location table has no %q column", name)
		}
	}
	return h, nil
}

func (h header) cell(rec []string, name string) string {
	i, ok := h[strings.ToLower(name)]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) row(rec []string, line int) (Row, error) {
	var r Row
	var err error
	num := func(name string, required bool) float64 {
		s := h.cell(rec, name)
		if s == "" && !required {
			return 0
		}
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeInvalidFormat, perr, "row %d: column %q", line, name)
		}
		return v
	}

	r.Category = h.cell(rec, colCategory)
	r.Label = h.cell(rec, colLabel)
	r.Chainage = h.cell(rec, colChainage)
	r.Side = h.cell(rec, colSide)
	r.Segment = h.cell(rec, colSegment)
	r.Block = h.cell(rec, colBlock)
	r.Index = int(num(colIndex, false))
	r.Station = num(colStation, true)
	r.Offset = num(colOffset, false)
	r.X = num(colX, true)
	r.Y = num(colY, true)
	r.Rotation = num(colRotation, false)
	if err != nil {
		return Row{}, err
	}
	if r.Category == "" {
		return Row{}, errors.New(errors.ErrCodeInvalidFormat, "row %d: empty category", line)
	}
	return r, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Placements rebuilds placements from a re-imported table. Distances are
// stations minus startStation. Rule indices are not stored and come back
// as -1; a missing index is the row number. Repeated indices are
// rejected since they identify devices downstream.
func Placements(rows []Row, startStation float64) ([]layout.Placement, error) {
	out := make([]layout.Placement, len(rows))
	seen := make(map[int]int, len(rows))
	for i, r := range rows {
		side := layout.SideCenter
		if r.Side != "" {
			s, err := layout.ParseSide(r.Side)
			if err != nil || s == layout.SideBoth {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "row %d: invalid side %q", i+1, r.Side)
			}
			side = s
		}
		idx := r.Index
		if idx == 0 {
			idx = i + 1
		}
		if prev, ok := seen[idx]; ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "row %d: index %d already used by row %d", i+1, idx, prev)
		}
		seen[idx] = i + 1
		label := r.Label
		if label == "" {
			label = r.Category
		}
		out[i] = layout.Placement{
			Index:    idx,
			Category: r.Category,
			Label:    label,
			Block:    r.Block,
			Distance: r.Station - startStation,
			Station:  r.Station,
			Chainage: r.Chainage,
			X:        r.X,
			Y:        r.Y,
			Rotation: r.Rotation,
			Side:     side,
			Offset:   r.Offset,
			Segment:  r.Segment,
			Rule:     -1,
		}
	}
	return out, nil
}
