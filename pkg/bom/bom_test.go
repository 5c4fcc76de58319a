package bom

import (
	"context"
	"testing"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/layout"
)

func TestBuild(t *testing.T) {
	al, err := alignment.New([]alignment.Vertex{
		{Point: orb.Point{0, 0}}, {Point: orb.Point{1000, 0}}, {Point: orb.Point{1000, 1000}},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	res, err := layout.Place(context.Background(), al, []layout.Rule{
		{Category: "CCTV", Spacing: 500},
		{Category: "LAMP", Spacing: 40, Side: layout.SideBoth, Offset: 8},
		{Category: "VMS", Spacing: 900, Start: 100},
	}, layout.Options{})
	if err != nil {
		t.Fatal(err)
	}

	b := Build(res.Placements)
	if b.Total != len(res.Placements) {
		t.Errorf("Total = %d, want %d", b.Total, len(res.Placements))
	}
	sum := 0
	for _, l := range b.Lines {
		sum += l.Count
		segSum := 0
		for _, n := range l.BySegment {
			segSum += n
		}
		if segSum != l.Count {
			t.Errorf("%s: segment counts sum to %d, want %d", l.Category, segSum, l.Count)
		}
	}
	if sum != len(res.Placements) {
		t.Errorf("line counts sum to %d, want %d", sum, len(res.Placements))
	}

	if got := b.Count("CCTV"); got != 5 {
		t.Errorf("Count(CCTV) = %d, want 5", got)
	}
	if got := b.Count("LAMP"); got != 2*51 {
		t.Errorf("Count(LAMP) = %d, want 102", got)
	}
	if got := b.Count("VMS"); got != 3 {
		t.Errorf("Count(VMS) = %d, want 3", got)
	}
	if b.Lines[0].Category != "CCTV" || b.Lines[2].Category != "VMS" {
		t.Errorf("lines not sorted: %+v", b.Lines)
	}
	if len(b.Segments) != 2 || b.Segments[0] != "S1" || b.Segments[1] != "S2" {
		t.Errorf("Segments = %v", b.Segments)
	}
}

func TestBuildEmpty(t *testing.T) {
	b := Build(nil)
	if b.Total != 0 || len(b.Lines) != 0 {
		t.Errorf("Build(nil) = %+v", b)
	}
}

func TestAddItem(t *testing.T) {
	b := Build(nil)
	b.AddItem("Cable YJV-4x16", "m", 120.5)
	b.AddItem("Cable YJV-4x16", "m", 10)
	b.AddItem("Fiber 24C", "m", 900)
	if len(b.Items) != 2 || b.Items[0].Quantity != 130.5 {
		t.Errorf("Items = %+v", b.Items)
	}
}
