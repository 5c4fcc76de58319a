package layout

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/station"
)

// tolerance is the slack, in metres, on rule bounds and station steps.
const tolerance = 1e-6

// Placement is one device on the route. Placements are produced by [Place]
// or [Survey] and never modified afterwards.
type Placement struct {
	Index    int     `json:"index" msgpack:"index"` // 1-based, in station order
	Category string  `json:"category" msgpack:"category"`
	Label    string  `json:"label" msgpack:"label"`
	Block    string  `json:"block" msgpack:"block"`
	Distance float64 `json:"distance" msgpack:"distance"` // along the alignment
	Station  float64 `json:"station" msgpack:"station"`   // start station + distance
	Chainage string  `json:"chainage" msgpack:"chainage"` // Station formatted K<km>+<m>
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Rotation float64 `json:"rotation" msgpack:"rotation"` // degrees CCW from +X, [0, 360)
	Side     Side    `json:"side" msgpack:"side"`         // center, left or right
	Offset   float64 `json:"offset" msgpack:"offset"`     // unsigned lateral distance
	Segment  string  `json:"segment" msgpack:"segment"`   // owning road segment
	Rule     int     `json:"rule" msgpack:"rule"`         // rule index, -1 for surveyed devices
}

// Point returns the device position.
func (p Placement) Point() orb.Point { return orb.Point{p.X, p.Y} }

// Segment is a named stretch of road, used to attribute placements.
type Segment struct {
	Name       string
	Start, End float64 // distances along the alignment
}

// Options configures [Place] and [Survey].
type Options struct {
	StartStation float64   // chainage of distance 0
	Decimals     int       // metre decimals in chainage strings
	Segments     []Segment // named segments; alignment segments S1..Sn otherwise
	Strict       bool      // overlap and clearance conflicts are errors
	Workers      int       // concurrent rules, GOMAXPROCS when zero
}

// Result holds the placements of a run and the non-fatal findings.
type Result struct {
	Placements []Placement      `msgpack:"placements"`
	Warnings   []errors.Warning `msgpack:"warnings"`
	Counts     map[string]int   `msgpack:"counts"` // placements per category
}

// Place generates placements for all rules. Rules are processed concurrently
// and merged in order of distance, rule index and side.
func Place(ctx context.Context, al *alignment.Alignment, rules []Rule, opts Options) (*Result, error) {
	if al == nil {
		return nil, errors.New(errors.ErrCodeInvalidAlignment, "no alignment")
	}
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}

	perRule := make([][]Placement, len(rules))
	g, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i, r := range rules {
		g.Go(func() error {
			ps, err := placeRule(ctx, al, i, r, opts)
			if err != nil {
				return err
			}
			perRule[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Placement
	for _, ps := range perRule {
		all = append(all, ps...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Side < b.Side
	})
	for i := range all {
		all[i].Index = i + 1
	}

	res := &Result{Placements: all, Counts: CountByCategory(all)}
	res.Warnings = conflicts(all, rules)
	if opts.Strict && len(res.Warnings) > 0 {
		return nil, errors.New(errors.ErrCodeRuleConflict, "%d placement conflicts, first: %s", len(res.Warnings), res.Warnings[0].Message)
	}
	return res, nil
}

func placeRule(ctx context.Context, al *alignment.Alignment, idx int, r Rule, opts Options) ([]Placement, error) {
	start, end, err := r.span(al.Length())
	if err != nil {
		return nil, fmt.Errorf("rule %d: %w", idx+1, err)
	}

	var out []Placement
	for _, d := range r.stations(start, end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := al.At(d)
		if err != nil {
			return nil, err
		}
		for _, side := range r.sides() {
			pt, offset := f.Point, 0.0
			switch side {
			case SideLeft:
				pt, offset = f.Offset(r.Offset), r.Offset
			case SideRight:
				pt, offset = f.Offset(-r.Offset), r.Offset
			}
			st := opts.StartStation + d
			out = append(out, Placement{
				Category: r.Category,
				Label:    r.label(),
				Block:    r.BlockName(),
				Distance: d,
				Station:  st,
				Chainage: station.Format(st, opts.Decimals),
				X:        pt[0],
				Y:        pt[1],
				Rotation: Rotation(f.Tangent, side, r.Orientation),
				Side:     side,
				Offset:   offset,
				Segment:  segmentName(opts.Segments, d, f.Segment),
				Rule:     idx,
			})
		}
	}
	return out, nil
}

// Rotation returns the symbol rotation in degrees for a tangent in radians.
func Rotation(tangent float64, side Side, o Orientation) float64 {
	deg := tangent * 180 / math.Pi
	if o == Perpendicular {
		if side == SideRight {
			deg -= 90
		} else {
			deg += 90
		}
	}
	return normDeg(deg)
}

func normDeg(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// segmentName returns the named segment containing d, or S<n> for the
// alignment segment index.
func segmentName(segs []Segment, d float64, index int) string {
	for _, s := range segs {
		if d >= s.Start-tolerance && d <= s.End+tolerance {
			return s.Name
		}
	}
	return fmt.Sprintf("S%d", index+1)
}

// CountByCategory returns the number of placements per category.
func CountByCategory(ps []Placement) map[string]int {
	out := make(map[string]int)
	for _, p := range ps {
		out[p.Category]++
	}
	return out
}
