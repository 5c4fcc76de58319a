package annotate

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/dxf"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

func placements(t *testing.T) (*alignment.Alignment, []layout.Placement) {
	t.Helper()
	al, err := alignment.New([]alignment.Vertex{{Point: orb.Point{0, 0}}, {Point: orb.Point{1000, 0}}}, false)
	if err != nil {
		t.Fatal(err)
	}
	res, err := layout.Place(context.Background(), al, []layout.Rule{
		{Category: "CCTV", Spacing: 500, Side: layout.SideLeft, Offset: 10},
		{Category: "Fire Box", Block: "FIRE", Spacing: 1000, Side: layout.SideRight, Offset: 5},
	}, layout.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return al, res.Placements
}

func reread(t *testing.T, doc *dxf.Document) *dxf.Document {
	t.Helper()
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	out, err := dxf.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return out
}

func TestDeviceLayer(t *testing.T) {
	tests := []struct{ in, want string }{
		{"CCTV", "DEVICE_CCTV"},
		{"vms", "DEVICE_VMS"},
		{"Fire  Box", "DEVICE_FIRE_BOX"},
	}
	for _, tt := range tests {
		if got := DeviceLayer(tt.in); got != tt.want {
			t.Errorf("DeviceLayer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDevices(t *testing.T) {
	_, ps := placements(t)
	doc := dxf.New()
	if err := Devices(doc, ps, Options{}); err != nil {
		t.Fatalf("Devices() error: %v", err)
	}
	back := reread(t, doc)
	if !back.HasBlock("CCTV") || !back.HasBlock("FIRE") {
		t.Errorf("default symbols missing: %v", back.Blocks())
	}

	var inserts []dxf.Insert
	for _, e := range back.Entities() {
		if ins, ok := e.(dxf.Insert); ok {
			inserts = append(inserts, ins)
		}
	}
	if len(inserts) != len(ps) {
		t.Fatalf("inserts = %d, want %d", len(inserts), len(ps))
	}
	for i, ins := range inserts {
		p := ps[i]
		if ins.Layer != DeviceLayer(p.Category) || ins.Block != p.Block {
			t.Errorf("insert %d = %s on %s, want %s on %s", i, ins.Block, ins.Layer, p.Block, DeviceLayer(p.Category))
		}
		if math.Abs(ins.Point[0]-p.X) > 1e-9 || math.Abs(ins.Point[1]-p.Y) > 1e-9 {
			t.Errorf("insert %d at %v, want %v", i, ins.Point, p.Point())
		}
		if math.Abs(math.Remainder(ins.Rotation-p.Rotation, 360)) > 1e-9 {
			t.Errorf("insert %d rotation %v, want %v", i, ins.Rotation, p.Rotation)
		}
	}

	// Existing block definitions are kept.
	_, sym, _ := back.Block("CCTV")
	if len(sym) != 3 {
		t.Errorf("symbol entities = %d, want 3", len(sym))
	}
}

func TestLegendsFallback(t *testing.T) {
	al, ps := placements(t)
	doc := dxf.New()
	warnings, err := Legends(doc, al, ps, Options{})
	if err != nil {
		t.Fatalf("Legends() error: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want one per legend block", warnings)
	}
	for _, w := range warnings {
		if w.Code != errors.ErrCodeNotFound || !strings.HasSuffix(w.Subject, LegendSuffix) {
			t.Errorf("warning = %v", w)
		}
	}

	var circles []dxf.Circle
	var leaders []dxf.Line
	var texts int
	for _, e := range reread(t, doc).Entities() {
		if e.EntityLayer() != LegendLayer {
			t.Errorf("%s on layer %s", e.EntityType(), e.EntityLayer())
		}
		switch v := e.(type) {
		case dxf.Circle:
			circles = append(circles, v)
		case dxf.Line:
			leaders = append(leaders, v)
		case dxf.Text:
			texts++
		}
	}
	if len(circles) != len(ps) || len(leaders) != len(ps) {
		t.Fatalf("circles = %d leaders = %d, want %d", len(circles), len(leaders), len(ps))
	}
	// R12 drawings carry one TEXT per label line.
	if texts != 3*len(ps) {
		t.Errorf("text lines = %d, want %d", texts, 3*len(ps))
	}
	for i, p := range ps {
		want := 25.0
		if p.Side == layout.SideRight {
			want = -20
		}
		if math.Abs(circles[i].Center[1]-want) > 1e-9 || math.Abs(circles[i].Center[0]-p.X) > 1e-9 {
			t.Errorf("legend %d at %v, want (%v, %v)", i, circles[i].Center, p.X, want)
		}
		if leaders[i].Start != p.Point() {
			t.Errorf("leader %d starts at %v, want %v", i, leaders[i].Start, p.Point())
		}
	}
}

func TestLegendsImportsBlocks(t *testing.T) {
	al, ps := placements(t)
	src := dxf.New()
	for _, name := range []string{"CCTV_TL", "FIRE_TL"} {
		if err := src.AddBlock(name, orb.Point{}, dxf.Circle{Layer: "0", Radius: 3}); err != nil {
			t.Fatal(err)
		}
	}
	src = reread(t, src)

	doc := dxf.New()
	warnings, err := Legends(doc, al, ps, Options{Source: src, LeaderLength: 20})
	if err != nil {
		t.Fatalf("Legends() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	n := 0
	for _, e := range reread(t, doc).Entities() {
		if ins, ok := e.(dxf.Insert); ok {
			n++
			if !strings.HasSuffix(ins.Block, LegendSuffix) {
				t.Errorf("legend insert of %s", ins.Block)
			}
		}
	}
	if n != len(ps) {
		t.Errorf("legend inserts = %d, want %d", n, len(ps))
	}
}

func TestLegendsNeedsAlignment(t *testing.T) {
	if _, err := Legends(dxf.New(), nil, nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidAlignment) {
		t.Errorf("Legends(nil) error = %v", err)
	}
}
