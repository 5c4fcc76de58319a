package alignment

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/highwaype/highwaype/pkg/errors"
)

const eps = 1e-9

func straight(t *testing.T, pts ...orb.Point) *Alignment {
	t.Helper()
	vs := make([]Vertex, len(pts))
	for i, p := range pts {
		vs[i] = Vertex{Point: p}
	}
	al, err := New(vs, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return al
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name     string
		vertices []Vertex
	}{
		{"empty", nil},
		{"single vertex", []Vertex{{Point: orb.Point{1, 1}}}},
		{"duplicate vertices", []Vertex{{Point: orb.Point{1, 1}}, {Point: orb.Point{1, 1}}}},
		{"nan coordinate", []Vertex{{Point: orb.Point{0, 0}}, {Point: orb.Point{math.NaN(), 1}}}},
		{"infinite bulge", []Vertex{{Point: orb.Point{0, 0}, Bulge: math.Inf(1)}, {Point: orb.Point{1, 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vertices, false)
			if !errors.Is(err, errors.ErrCodeInvalidAlignment) {
				t.Errorf("New() error = %v, want INVALID_ALIGNMENT", err)
			}
		})
	}
}

func TestStraightLine(t *testing.T) {
	al := straight(t, orb.Point{0, 0}, orb.Point{2000, 0})

	if !near(al.Length(), 2000, eps) {
		t.Fatalf("Length() = %v, want 2000", al.Length())
	}

	for _, d := range []float64{0, 500, 1000, 1500, 2000} {
		f, err := al.At(d)
		if err != nil {
			t.Fatalf("At(%v) error: %v", d, err)
		}
		if !near(f.Point[0], d, eps) || !near(f.Point[1], 0, eps) {
			t.Errorf("At(%v) point = %v", d, f.Point)
		}
		if !near(f.Tangent, 0, eps) {
			t.Errorf("At(%v) tangent = %v, want 0", d, f.Tangent)
		}
	}
}

func TestAtOutOfRange(t *testing.T) {
	al := straight(t, orb.Point{0, 0}, orb.Point{100, 0})

	for _, d := range []float64{-1, 100.1, math.NaN()} {
		if _, err := al.At(d); !errors.Is(err, errors.ErrCodeInvalidStation) {
			t.Errorf("At(%v) error = %v, want INVALID_STATION", d, err)
		}
	}

	// Within tolerance is clamped.
	f, err := al.At(100 + Tolerance/2)
	if err != nil {
		t.Fatalf("At(L+tol/2) error: %v", err)
	}
	if !near(f.Point[0], 100, eps) {
		t.Errorf("clamped point = %v", f.Point)
	}
}

func TestPolylineKink(t *testing.T) {
	al := straight(t, orb.Point{0, 0}, orb.Point{100, 0}, orb.Point{100, 100})

	if al.SegmentCount() != 2 {
		t.Fatalf("SegmentCount() = %d, want 2", al.SegmentCount())
	}

	// At the kink the outgoing segment wins.
	f, _ := al.At(100)
	if !near(f.Tangent, math.Pi/2, eps) || f.Segment != 1 {
		t.Errorf("At(100) tangent = %v segment = %d, want pi/2 and 1", f.Tangent, f.Segment)
	}

	f, _ = al.At(150)
	if !near(f.Point[0], 100, eps) || !near(f.Point[1], 50, eps) {
		t.Errorf("At(150) = %v, want (100, 50)", f.Point)
	}

	// The end station uses the last segment.
	f, _ = al.At(200)
	if f.Segment != 1 || !near(f.Point[1], 100, eps) {
		t.Errorf("At(200) = %+v", f)
	}
}

func TestSemicircleArc(t *testing.T) {
	// Bulge 1 is a counter-clockwise half circle of radius 1 centered at (1, 0).
	al, err := New([]Vertex{{Point: orb.Point{0, 0}, Bulge: 1}, {Point: orb.Point{2, 0}}}, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !near(al.Length(), math.Pi, 1e-12) {
		t.Fatalf("Length() = %v, want pi", al.Length())
	}

	mid, _ := al.At(math.Pi / 2)
	if !near(mid.Point[0], 1, 1e-12) || !near(mid.Point[1], -1, 1e-12) {
		t.Errorf("midpoint = %v, want (1, -1)", mid.Point)
	}
	if !near(mid.Tangent, 2*math.Pi, 1e-12) && !near(mid.Tangent, 0, 1e-12) {
		t.Errorf("mid tangent = %v, want 0 (mod 2pi)", mid.Tangent)
	}

	// Every station lies on the circle.
	for d := 0.0; d <= al.Length(); d += 0.1 {
		f, _ := al.At(d)
		if r := planar.Distance(f.Point, orb.Point{1, 0}); !near(r, 1, 1e-12) {
			t.Fatalf("At(%v) radius = %v, want 1", d, r)
		}
	}
}

func TestClockwiseArc(t *testing.T) {
	// Negative bulge turns clockwise: the half circle passes above the chord.
	al, err := New([]Vertex{{Point: orb.Point{0, 0}, Bulge: -1}, {Point: orb.Point{2, 0}}}, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	mid, _ := al.At(math.Pi / 2)
	if !near(mid.Point[0], 1, 1e-12) || !near(mid.Point[1], 1, 1e-12) {
		t.Errorf("midpoint = %v, want (1, 1)", mid.Point)
	}
}

func TestContinuity(t *testing.T) {
	al, err := New([]Vertex{
		{Point: orb.Point{0, 0}},
		{Point: orb.Point{100, 0}, Bulge: 0.25},
		{Point: orb.Point{180, 60}},
		{Point: orb.Point{200, 160}},
	}, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	const step = 0.01
	prev, _ := al.At(0)
	for d := step; d <= al.Length(); d += step {
		f, _ := al.At(d)
		if gap := planar.Distance(prev.Point, f.Point); gap > step+1e-9 {
			t.Fatalf("discontinuity at %v: gap %v", d, gap)
		}
		prev = f
	}
}

func TestTangentOnArcIsTangent(t *testing.T) {
	al, err := New([]Vertex{{Point: orb.Point{0, 0}, Bulge: 0.4}, {Point: orb.Point{50, 0}}}, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	// A finite-difference direction must match the reported tangent.
	for _, d := range []float64{1, 10, 25, 40} {
		f, _ := al.At(d)
		g, _ := al.At(d + 1e-6)
		fd := math.Atan2(g.Point[1]-f.Point[1], g.Point[0]-f.Point[0])
		diff := math.Remainder(fd-f.Tangent, 2*math.Pi)
		if math.Abs(diff) > 1e-4 {
			t.Errorf("At(%v) tangent %v, finite difference %v", d, f.Tangent, fd)
		}
	}
}

func TestProject(t *testing.T) {
	al := straight(t, orb.Point{0, 0}, orb.Point{1000, 0})

	tests := []struct {
		p        orb.Point
		distance float64
		offset   float64
		side     Side
	}{
		{orb.Point{250, 12}, 250, 12, SideLeft},
		{orb.Point{700, -3.5}, 700, 3.5, SideRight},
		{orb.Point{400, 0}, 400, 0, SideOn},
		{orb.Point{-10, 0}, 0, 10, SideOn},
		{orb.Point{1010, 5}, 1000, math.Hypot(10, 5), SideLeft},
	}

	for _, tt := range tests {
		pr := al.Project(tt.p)
		if !near(pr.Distance, tt.distance, 1e-9) || !near(pr.Offset, tt.offset, 1e-9) {
			t.Errorf("Project(%v) = distance %v offset %v, want %v %v", tt.p, pr.Distance, pr.Offset, tt.distance, tt.offset)
		}
		if tt.offset > Tolerance && tt.p[1] != 0 && pr.Side != tt.side {
			t.Errorf("Project(%v) side = %v, want %v", tt.p, pr.Side, tt.side)
		}
	}
}

func TestProjectOntoArc(t *testing.T) {
	al, _ := New([]Vertex{{Point: orb.Point{0, 0}, Bulge: 1}, {Point: orb.Point{2, 0}}}, false)

	// (1, -3) is outside the circle below its lowest point (1, -1).
	pr := al.Project(orb.Point{1, -3})
	if !near(pr.Distance, math.Pi/2, 1e-12) || !near(pr.Offset, 2, 1e-12) {
		t.Errorf("Project = %+v", pr)
	}
	// Travelling counter-clockwise, the outside of the circle is on the right.
	if pr.Side != SideRight {
		t.Errorf("side = %v, want right", pr.Side)
	}

	pr = al.Project(orb.Point{1, -0.5})
	if pr.Side != SideLeft || !near(pr.Offset, 0.5, 1e-12) {
		t.Errorf("inside point projection = %+v", pr)
	}
}

func TestFrameOffset(t *testing.T) {
	f := Frame{Point: orb.Point{10, 10}, Tangent: math.Pi / 2}
	left := f.Offset(5)
	if !near(left[0], 5, eps) || !near(left[1], 10, eps) {
		t.Errorf("Offset(5) = %v, want (5, 10)", left)
	}
	right := f.Offset(-5)
	if !near(right[0], 15, eps) || !near(right[1], 10, eps) {
		t.Errorf("Offset(-5) = %v, want (15, 10)", right)
	}
}

func TestClosedAlignment(t *testing.T) {
	vs := []Vertex{
		{Point: orb.Point{0, 0}},
		{Point: orb.Point{10, 0}},
		{Point: orb.Point{10, 10}},
		{Point: orb.Point{0, 10}},
	}
	al, err := New(vs, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !al.Closed() || !near(al.Length(), 40, eps) {
		t.Errorf("closed square length = %v closed = %v", al.Length(), al.Closed())
	}
	end, _ := al.At(40)
	if !near(end.Point[0], 0, eps) || !near(end.Point[1], 0, eps) {
		t.Errorf("At(40) = %v, want origin", end.Point)
	}
}

func TestFlatten(t *testing.T) {
	al, _ := New([]Vertex{{Point: orb.Point{0, 0}, Bulge: 1}, {Point: orb.Point{200, 0}}}, false)

	ls := al.Flatten(0.05)
	if len(ls) < 10 {
		t.Fatalf("Flatten produced %d points", len(ls))
	}
	// Chord midpoints stay within tolerance of the circle.
	for i := 1; i < len(ls); i++ {
		m := orb.Point{(ls[i-1][0] + ls[i][0]) / 2, (ls[i-1][1] + ls[i][1]) / 2}
		if dev := 100 - planar.Distance(m, orb.Point{100, 0}); dev > 0.05+1e-9 {
			t.Fatalf("chord %d deviates %v", i, dev)
		}
	}
	if ls[len(ls)-1] != (orb.Point{200, 0}) {
		t.Errorf("last point = %v", ls[len(ls)-1])
	}
}

func TestArcVertices(t *testing.T) {
	vs := ArcVertices(orb.Point{0, 0}, 10, 0, 90)
	if len(vs) != 2 {
		t.Fatalf("ArcVertices returned %d vertices", len(vs))
	}
	al, err := New(vs, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !near(al.Length(), 10*math.Pi/2, 1e-9) {
		t.Errorf("quarter arc length = %v", al.Length())
	}
	mid, _ := al.At(al.Length() / 2)
	want := 10 / math.Sqrt2
	if !near(mid.Point[0], want, 1e-9) || !near(mid.Point[1], want, 1e-9) {
		t.Errorf("mid = %v, want (%v, %v)", mid.Point, want, want)
	}
}
