package alignment

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/highwaype/highwaype/pkg/errors"
)

// Tolerance is the distance below which two vertices are the same point and
// the slack allowed when a station is checked against [0, Length].
const Tolerance = 1e-6

// Vertex is a centerline vertex. Bulge describes the segment that starts at
// this vertex, following the DXF LWPOLYLINE convention.
type Vertex struct {
	Point orb.Point
	Bulge float64
}

// Side classifies a point relative to the direction of travel.
type Side int

const (
	SideOn Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "on"
	}
}

// Frame is the local coordinate frame at a station.
type Frame struct {
	Point   orb.Point
	Tangent float64 // direction of travel, radians CCW from +X
	Segment int     // index of the segment containing the station
}

// Normal returns the unit normal pointing to the left of travel.
func (f Frame) Normal() orb.Point {
	return orb.Point{-math.Sin(f.Tangent), math.Cos(f.Tangent)}
}

// Offset returns the point at lateral distance d from the frame origin,
// positive to the left of travel.
func (f Frame) Offset(d float64) orb.Point {
	n := f.Normal()
	return orb.Point{f.Point[0] + n[0]*d, f.Point[1] + n[1]*d}
}

// Projection is the result of projecting a point onto the alignment.
type Projection struct {
	Distance float64   // station of the nearest centerline point
	Offset   float64   // unsigned distance from the centerline
	Side     Side      // side of travel the point lies on
	Foot     orb.Point // nearest centerline point
	Segment  int
}

// Alignment is an immutable route centerline with a station axis.
type Alignment struct {
	vertices []Vertex
	segs     []segment
	starts   []float64 // station at which each segment begins
	length   float64
	closed   bool
}

// New builds an alignment from vertices. Consecutive duplicate vertices are
// merged. When closed is true a final segment returns to the first vertex.
//
// It fails with INVALID_ALIGNMENT when fewer than two distinct vertices
// remain, when a coordinate or bulge is not finite, or when the total length
// is zero.
func New(vertices []Vertex, closed bool) (*Alignment, error) {
	clean := make([]Vertex, 0, len(vertices))
	for i, v := range vertices {
		if !finite(v.Point[0]) || !finite(v.Point[1]) || !finite(v.Bulge) {
			return nil, errors.New(errors.ErrCodeInvalidAlignment, "vertex %d is not finite", i)
		}
		if n := len(clean); n > 0 && samePoint(clean[n-1].Point, v.Point) {
			clean[n-1] = v
			continue
		}
		clean = append(clean, v)
	}
	if closed && len(clean) > 2 && samePoint(clean[0].Point, clean[len(clean)-1].Point) {
		clean = clean[:len(clean)-1]
	}
	if len(clean) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidAlignment, "centerline needs at least 2 distinct vertices, got %d", len(clean))
	}

	a := &Alignment{vertices: clean, closed: closed}
	for i := 0; i+1 < len(clean); i++ {
		a.push(newSegment(clean[i].Point, clean[i+1].Point, clean[i].Bulge))
	}
	if closed {
		last := clean[len(clean)-1]
		a.push(newSegment(last.Point, clean[0].Point, last.Bulge))
	}
	if a.length <= Tolerance {
		return nil, errors.New(errors.ErrCodeInvalidAlignment, "centerline has zero length")
	}
	return a, nil
}

func (a *Alignment) push(s segment) {
	a.starts = append(a.starts, a.length)
	a.segs = append(a.segs, s)
	a.length += s.length
}

// Length returns the total length, the last valid station.
func (a *Alignment) Length() float64 { return a.length }

// Closed reports whether the alignment returns to its first vertex.
func (a *Alignment) Closed() bool { return a.closed }

// SegmentCount returns the number of straight or arc segments.
func (a *Alignment) SegmentCount() int { return len(a.segs) }

// Vertices returns a copy of the cleaned vertex list.
func (a *Alignment) Vertices() []Vertex {
	out := make([]Vertex, len(a.vertices))
	copy(out, a.vertices)
	return out
}

// SegmentIndex returns the index of the segment containing station d.
// Interior vertices belong to the segment that starts there.
func (a *Alignment) SegmentIndex(d float64) int {
	i := sort.Search(len(a.starts), func(i int) bool { return a.starts[i] > d }) - 1
	return max(0, min(i, len(a.segs)-1))
}

// At returns the point and tangent at station d. Stations outside
// [0, Length] by more than [Tolerance] fail with INVALID_STATION.
func (a *Alignment) At(d float64) (Frame, error) {
	if math.IsNaN(d) || d < -Tolerance || d > a.length+Tolerance {
		return Frame{}, errors.New(errors.ErrCodeInvalidStation, "station %.3f outside alignment [0, %.3f]", d, a.length)
	}
	d = math.Max(0, math.Min(a.length, d))
	i := a.SegmentIndex(d)
	s := a.segs[i]
	t := math.Max(0, math.Min(s.length, d-a.starts[i]))
	return Frame{Point: s.pointAt(t), Tangent: s.tangentAt(t), Segment: i}, nil
}

// Project finds the centerline point nearest to p.
// Ties between segments resolve to the lower station.
func (a *Alignment) Project(p orb.Point) Projection {
	best := Projection{Offset: math.Inf(1)}
	for i, s := range a.segs {
		t, foot, dist := s.project(p)
		if dist < best.Offset-Tolerance {
			best = Projection{Distance: a.starts[i] + t, Offset: dist, Foot: foot, Segment: i}
		}
	}

	if best.Offset > Tolerance {
		tan := a.segs[best.Segment].tangentAt(best.Distance - a.starts[best.Segment])
		cross := math.Cos(tan)*(p[1]-best.Foot[1]) - math.Sin(tan)*(p[0]-best.Foot[0])
		if cross > 0 {
			best.Side = SideLeft
		} else {
			best.Side = SideRight
		}
	}
	return best
}

// Flatten approximates the alignment with a line string whose chords deviate
// from the arcs by at most tol.
func (a *Alignment) Flatten(tol float64) orb.LineString {
	ls := orb.LineString{a.segs[0].a}
	for _, s := range a.segs {
		ls = s.flatten(ls, tol)
	}
	return ls
}

// Bound returns the bounding box of the alignment, arcs included.
func (a *Alignment) Bound() orb.Bound {
	return a.Flatten(0.01).Bound()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func samePoint(p, q orb.Point) bool { return planar.Distance(p, q) <= Tolerance }

// ArcVertices converts a DXF ARC (center, radius, start and end angles in
// degrees, counter-clockwise) into a two-vertex path with the equivalent bulge.
func ArcVertices(center orb.Point, radius, startDeg, endDeg float64) []Vertex {
	a0 := startDeg * math.Pi / 180
	a1 := endDeg * math.Pi / 180
	sweep := math.Mod(a1-a0, 2*math.Pi)
	if sweep <= 0 {
		sweep += 2 * math.Pi
	}
	return []Vertex{
		{Point: orb.Point{center[0] + radius*math.Cos(a0), center[1] + radius*math.Sin(a0)}, Bulge: math.Tan(sweep / 4)},
		{Point: orb.Point{center[0] + radius*math.Cos(a1), center[1] + radius*math.Sin(a1)}},
	}
}
