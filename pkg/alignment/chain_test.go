package alignment

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/errors"
)

func piece(pts ...orb.Point) []Vertex {
	vs := make([]Vertex, len(pts))
	for i, p := range pts {
		vs[i] = Vertex{Point: p}
	}
	return vs
}

func TestChainOrdersAndReverses(t *testing.T) {
	pieces := [][]Vertex{
		piece(orb.Point{100, 0}, orb.Point{200, 0}),
		piece(orb.Point{300, 0}, orb.Point{200, 0}), // drawn backwards
		piece(orb.Point{0, 0}, orb.Point{100, 0}),
	}

	vs, closed, err := Chain(pieces, 0.01)
	if err != nil {
		t.Fatalf("Chain() error: %v", err)
	}
	if closed {
		t.Error("open chain reported closed")
	}

	al, err := New(vs, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if math.Abs(al.Length()-300) > 1e-9 {
		t.Errorf("Length() = %v, want 300", al.Length())
	}
	if len(vs) != 4 {
		t.Errorf("chained vertices = %d, want 4", len(vs))
	}
}

func TestChainReversesBulge(t *testing.T) {
	// The walk starts at (5,0) and must traverse the arc backwards.
	line := piece(orb.Point{5, 0}, orb.Point{2, 0})
	arc := []Vertex{{Point: orb.Point{0, 0}, Bulge: 1}, {Point: orb.Point{2, 0}}}

	vs, _, err := Chain([][]Vertex{line, arc}, 0.01)
	if err != nil {
		t.Fatalf("Chain() error: %v", err)
	}
	if vs[0].Point != (orb.Point{5, 0}) || vs[len(vs)-1].Point != (orb.Point{0, 0}) {
		t.Fatalf("chain runs %v -> %v", vs[0].Point, vs[len(vs)-1].Point)
	}
	al, err := New(vs, false)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if math.Abs(al.Length()-(3+math.Pi)) > 1e-9 {
		t.Fatalf("Length() = %v, want 3+pi", al.Length())
	}

	// Reversal keeps the arc below the chord.
	found := false
	for d := 0.0; d <= al.Length(); d += 0.001 {
		f, _ := al.At(d)
		if math.Abs(f.Point[0]-1) < 1e-3 && math.Abs(f.Point[1]+1) < 1e-3 {
			found = true
			break
		}
	}
	if !found {
		t.Error("reversed arc lost its shape")
	}
}

func TestChainBranch(t *testing.T) {
	pieces := [][]Vertex{
		piece(orb.Point{0, 0}, orb.Point{100, 0}),
		piece(orb.Point{100, 0}, orb.Point{200, 0}),
		piece(orb.Point{100, 0}, orb.Point{100, 100}),
	}
	_, _, err := Chain(pieces, 0.01)
	if !errors.Is(err, errors.ErrCodeInvalidAlignment) {
		t.Errorf("Chain() error = %v, want INVALID_ALIGNMENT", err)
	}
}

func TestChainGap(t *testing.T) {
	pieces := [][]Vertex{
		piece(orb.Point{0, 0}, orb.Point{100, 0}),
		piece(orb.Point{105, 0}, orb.Point{200, 0}),
	}
	_, _, err := Chain(pieces, 0.01)
	if !errors.Is(err, errors.ErrCodeInvalidAlignment) {
		t.Errorf("Chain() error = %v, want INVALID_ALIGNMENT", err)
	}

	// A larger tolerance bridges the gap.
	if _, _, err := Chain(pieces, 10); err != nil {
		t.Errorf("Chain() with tolerance 10 error: %v", err)
	}
}

func TestChainLoop(t *testing.T) {
	pieces := [][]Vertex{
		piece(orb.Point{0, 0}, orb.Point{10, 0}),
		piece(orb.Point{10, 0}, orb.Point{10, 10}),
		piece(orb.Point{0, 0}, orb.Point{10, 10}),
	}
	vs, closed, err := Chain(pieces, 0.01)
	if err != nil {
		t.Fatalf("Chain() error: %v", err)
	}
	if !closed {
		t.Error("loop not reported closed")
	}
	al, err := New(vs, closed)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	want := 20 + math.Hypot(10, 10)
	if math.Abs(al.Length()-want) > 1e-9 {
		t.Errorf("Length() = %v, want %v", al.Length(), want)
	}
}

func TestChainSinglePiece(t *testing.T) {
	p := piece(orb.Point{0, 0}, orb.Point{1, 1})
	vs, closed, err := Chain([][]Vertex{p}, 0.01)
	if err != nil || closed || len(vs) != 2 {
		t.Errorf("Chain(single) = %v, %v, %v", vs, closed, err)
	}

	if _, _, err := Chain(nil, 0.01); !errors.Is(err, errors.ErrCodeInvalidAlignment) {
		t.Errorf("Chain(nil) error = %v", err)
	}
}
