package sheets

import (
	"math"
	"sort"
	"strconv"

	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
)

// DefaultTag is the title-block attribute holding the sheet number.
const DefaultTag = "TUNo"

// NumberOptions configures [Renumber].
type NumberOptions struct {
	Tag        string   // attribute tag, case-insensitive; DefaultTag when empty
	YTolerance float64  // frames within this height difference form a row; 1 when zero
	XRestrict  *float64 // only frames with x greater than this are numbered
	Start      int      // first number, 1 when zero
}

// Numbered is a renumbered title block.
type Numbered struct {
	Handle string
	X, Y   float64
	Old    string
	New    string
}

// Renumber rewrites the number attribute of every title block in doc, top
// to bottom and then left to right. A frame joins the current row when its
// insertion height is within the tolerance of the row's first frame.
func Renumber(doc *dxf.Document, opts NumberOptions) ([]Numbered, error) {
	if opts.Tag == "" {
		opts.Tag = DefaultTag
	}
	if opts.YTolerance == 0 {
		opts.YTolerance = 1
	}
	if opts.YTolerance < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "row tolerance must not be negative")
	}
	if opts.Start == 0 {
		opts.Start = 1
	}

	type frame struct {
		ins dxf.Insert
		at  dxf.Attrib
	}
	var frames []frame
	for _, e := range doc.Entities() {
		ins, ok := e.(dxf.Insert)
		if !ok {
			continue
		}
		a, ok := ins.Attrib(opts.Tag)
		if !ok {
			continue
		}
		if opts.XRestrict != nil && ins.Point[0] <= *opts.XRestrict {
			continue
		}
		frames = append(frames, frame{ins: ins, at: a})
	}

	sort.SliceStable(frames, func(i, j int) bool { return frames[i].ins.Point[1] > frames[j].ins.Point[1] })
	var ordered []frame
	for i := 0; i < len(frames); {
		top := frames[i].ins.Point[1]
		j := i + 1
		for j < len(frames) && math.Abs(top-frames[j].ins.Point[1]) <= opts.YTolerance {
			j++
		}
		row := frames[i:j]
		sort.SliceStable(row, func(a, b int) bool { return row[a].ins.Point[0] < row[b].ins.Point[0] })
		ordered = append(ordered, row...)
		i = j
	}

	out := make([]Numbered, 0, len(ordered))
	for k, f := range ordered {
		n := strconv.Itoa(opts.Start + k)
		if err := doc.SetAttrib(f.at, n); err != nil {
			return nil, err
		}
		out = append(out, Numbered{Handle: f.ins.Handle, X: f.ins.Point[0], Y: f.ins.Point[1], Old: f.at.Value, New: n})
	}
	return out, nil
}
