package alignment

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// minBulge is the bulge below which a segment is treated as straight.
const minBulge = 1e-12

// segment is a straight line or circular arc between two vertices.
// Distances passed to its methods are measured from the segment start.
type segment struct {
	a, b   orb.Point
	length float64

	// Arc parameters; sweep == 0 for straight segments.
	center orb.Point
	radius float64
	start  float64 // polar angle of a around center
	sweep  float64 // signed included angle, positive = counter-clockwise
}

func newSegment(a, b orb.Point, bulge float64) segment {
	chord := planar.Distance(a, b)
	s := segment{a: a, b: b, length: chord}
	if math.Abs(bulge) < minBulge || chord == 0 {
		return s
	}

	theta := 4 * math.Atan(bulge)
	r := chord / (2 * math.Abs(math.Sin(theta/2)))
	h := r * math.Cos(theta/2)
	ux, uy := (b[0]-a[0])/chord, (b[1]-a[1])/chord
	sgn := math.Copysign(1, bulge)

	// The center sits on the chord bisector, left of the chord for a
	// counter-clockwise arc shorter than a half circle.
	cx := (a[0]+b[0])/2 - uy*h*sgn
	cy := (a[1]+b[1])/2 + ux*h*sgn

	s.center = orb.Point{cx, cy}
	s.radius = r
	s.start = math.Atan2(a[1]-cy, a[0]-cx)
	s.sweep = theta
	s.length = r * math.Abs(theta)
	return s
}

func (s segment) isArc() bool { return s.sweep != 0 }

func (s segment) dir() float64 { return math.Copysign(1, s.sweep) }

// pointAt returns the point at distance t from the segment start.
func (s segment) pointAt(t float64) orb.Point {
	if !s.isArc() {
		if s.length == 0 {
			return s.a
		}
		k := t / s.length
		return orb.Point{s.a[0] + (s.b[0]-s.a[0])*k, s.a[1] + (s.b[1]-s.a[1])*k}
	}
	ang := s.start + s.dir()*t/s.radius
	return orb.Point{s.center[0] + s.radius*math.Cos(ang), s.center[1] + s.radius*math.Sin(ang)}
}

// tangentAt returns the direction of travel in radians at distance t.
func (s segment) tangentAt(t float64) float64 {
	if !s.isArc() {
		return math.Atan2(s.b[1]-s.a[1], s.b[0]-s.a[0])
	}
	ang := s.start + s.dir()*t/s.radius
	return ang + s.dir()*math.Pi/2
}

// project returns the distance along the segment of the point nearest to p,
// that point, and its distance to p.
func (s segment) project(p orb.Point) (float64, orb.Point, float64) {
	if !s.isArc() {
		if s.length == 0 {
			return 0, s.a, planar.Distance(p, s.a)
		}
		dx, dy := s.b[0]-s.a[0], s.b[1]-s.a[1]
		k := ((p[0]-s.a[0])*dx + (p[1]-s.a[1])*dy) / (s.length * s.length)
		k = math.Max(0, math.Min(1, k))
		foot := orb.Point{s.a[0] + dx*k, s.a[1] + dy*k}
		return k * s.length, foot, planar.Distance(p, foot)
	}

	vx, vy := p[0]-s.center[0], p[1]-s.center[1]
	rho := math.Hypot(vx, vy)
	if rho > 0 {
		delta := math.Mod(s.dir()*(math.Atan2(vy, vx)-s.start), 2*math.Pi)
		if delta < 0 {
			delta += 2 * math.Pi
		}
		if delta <= math.Abs(s.sweep) {
			t := delta * s.radius
			foot := s.pointAt(t)
			return t, foot, math.Abs(rho - s.radius)
		}
	}

	da, db := planar.Distance(p, s.a), planar.Distance(p, s.b)
	if da <= db {
		return 0, s.a, da
	}
	return s.length, s.b, db
}

// flatten appends points along the segment, excluding its start, so that no
// chord deviates from the arc by more than tol.
func (s segment) flatten(ls orb.LineString, tol float64) orb.LineString {
	if !s.isArc() {
		return append(ls, s.b)
	}
	step := math.Pi / 2
	if tol > 0 && tol < s.radius {
		step = math.Min(step, 2*math.Acos(1-tol/s.radius))
	}
	n := int(math.Ceil(math.Abs(s.sweep) / step))
	if n < 1 {
		n = 1
	}
	for k := 1; k < n; k++ {
		ls = append(ls, s.pointAt(s.length*float64(k)/float64(n)))
	}
	return append(ls, s.b)
}
