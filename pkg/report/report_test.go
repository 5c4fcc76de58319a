package report

import (
	"bytes"
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/xuri/excelize/v2"

	"github.com/highwaype/highwaype/pkg/alignment"
	"github.com/highwaype/highwaype/pkg/bom"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

// samplePlacements lays out devices along a curved route so coordinates
// carry full float64 precision.
func samplePlacements(t *testing.T) ([]layout.Placement, *alignment.Alignment) {
	t.Helper()
	al, err := alignment.New([]alignment.Vertex{
		{Point: orb.Point{500000.125, 3200000.5}},
		{Point: orb.Point{501000.125, 3200000.5}, Bulge: 0.15},
		{Point: orb.Point{501700.3, 3200600.7}},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	res, err := layout.Place(context.Background(), al, []layout.Rule{
		{Category: "CCTV", Label: "Camera", Spacing: 333.3},
		{Category: "ETC", Label: "Toll gantry 门架", Spacing: 700, Side: layout.SideBoth, Offset: 12.25, Clearance: 20},
	}, layout.Options{StartStation: 12345.678, Decimals: 3})
	if err != nil {
		t.Fatal(err)
	}
	return res.Placements, al
}

type tuple struct {
	category string
	station  float64
	x, y     float64
}

func tuples(rows []Row) []tuple {
	out := make([]tuple, len(rows))
	for i, r := range rows {
		out[i] = tuple{r.Category, r.Station, r.X, r.Y}
	}
	return out
}

func equalTuples(t *testing.T, got, want []tuple) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	ps, _ := samplePlacements(t)
	rows := Rows(ps)
	warnings := []errors.Warning{errors.Warnf(errors.ErrCodeRuleConflict, "CCTV/ETC", "too close")}

	var buf bytes.Buffer
	if err := WriteLocationsXLSX(&buf, rows, warnings, Meta{RunID: "run-1", Title: "Locations", Source: "route.dxf"}); err != nil {
		t.Fatalf("WriteLocationsXLSX() error: %v", err)
	}

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadXLSX() error: %v", err)
	}
	equalTuples(t, tuples(got), tuples(rows))
	if got[0].Label != rows[0].Label || got[0].Chainage != rows[0].Chainage || got[0].Index != 1 {
		t.Errorf("first row = %+v, want %+v", got[0], rows[0])
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if list := f.GetSheetList(); len(list) != 2 || list[1] != SheetWarnings {
		t.Errorf("sheets = %v", list)
	}
	props, err := f.GetDocProps()
	if err != nil || props.Identifier != "run-1" {
		t.Errorf("doc props = %+v, %v", props, err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	ps, _ := samplePlacements(t)
	rows := Rows(ps)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), utf8BOM+colIndex) {
		t.Errorf("CSV starts with %q", buf.String()[:10])
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	equalTuples(t, tuples(got), tuples(rows))
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
	}
}

func TestReadCSVReorderedColumns(t *testing.T) {
	src := "Y,X,Station (m),Category,Note\n2.5,1.5,100,CCTV,x\n\n3,4,200,VMS,\n"
	got, err := ReadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	equalTuples(t, tuples(got), []tuple{{"CCTV", 100, 1.5, 2.5}, {"VMS", 200, 4, 3}})
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "Category,X,Y\nCCTV,1,2\n"},
		{"bad number", "Category,Station (m),X,Y\nCCTV,K0+100,1,2\n"},
		{"empty category", "Category,Station (m),X,Y\n,100,1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadCSV() error = %v, want INVALID_FORMAT", err)
			}
		})
	}

	if _, err := ReadXLSX(strings.NewReader("not a zip")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadXLSX() error = %v, want INVALID_FORMAT", err)
	}
}

func TestWriteBOMXLSX(t *testing.T) {
	ps, _ := samplePlacements(t)
	b := bom.Build(ps)
	b.AddItem("Cable YJV-3x10", "m", 1234.5)

	var buf bytes.Buffer
	if err := WriteBOMXLSX(&buf, b, Meta{RunID: "run-2"}); err != nil {
		t.Fatalf("WriteBOMXLSX() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetBOM, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}

	if rows[0][0] != "Category" || rows[0][len(rows[0])-1] != "Total" {
		t.Errorf("header = %v", rows[0])
	}
	totalRow := rows[len(b.Lines)+1]
	if totalRow[0] != "Total" || totalRow[len(totalRow)-1] != strconv.Itoa(len(ps)) {
		t.Errorf("total row = %v, want total %d", totalRow, len(ps))
	}
	last := rows[len(rows)-1]
	if last[0] != "Cable YJV-3x10" || last[2] != "1234.5" {
		t.Errorf("material row = %v", last)
	}
}

func TestWriteGeoJSON(t *testing.T) {
	ps, al := samplePlacements(t)

	var buf bytes.Buffer
	if err := WriteGeoJSON(&buf, ps, al); err != nil {
		t.Fatalf("WriteGeoJSON() error: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	if err != nil {
		t.Fatalf("output is not a FeatureCollection: %v", err)
	}
	if len(fc.Features) != len(ps)+1 {
		t.Fatalf("features = %d, want %d", len(fc.Features), len(ps)+1)
	}
	if _, ok := fc.Features[0].Geometry.(orb.LineString); !ok {
		t.Errorf("first feature is %T, want LineString", fc.Features[0].Geometry)
	}
	dev := fc.Features[1]
	pt, ok := dev.Geometry.(orb.Point)
	if !ok || pt != ps[0].Point() {
		t.Errorf("device geometry = %v, want %v", dev.Geometry, ps[0].Point())
	}
	if dev.Properties.MustString("category") != ps[0].Category {
		t.Errorf("properties = %v", dev.Properties)
	}
}

func TestWriteSQLite(t *testing.T) {
	ps, _ := samplePlacements(t)
	b := bom.Build(ps)
	path := filepath.Join(t.TempDir(), "register.db")
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b"} {
		reg := Register{RunID: id, Source: "route.dxf", Version: "dev", Placements: ps, BOM: b,
			Warnings: []errors.Warning{errors.Warnf(errors.ErrCodeConstraintViolation, "C1", "drop 6%%")}}
		if err := WriteSQLite(ctx, path, reg); err != nil {
			t.Fatalf("WriteSQLite(%s) error: %v", id, err)
		}
	}
	// The same run id cannot be recorded twice.
	if err := WriteSQLite(ctx, path, Register{RunID: "run-a"}); err == nil {
		t.Error("duplicate run id accepted")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var runs, devices, warnings int
	if err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM devices WHERE run_id = ?", "run-b").Scan(&devices); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM warnings").Scan(&warnings); err != nil {
		t.Fatal(err)
	}
	if runs != 2 || devices != len(ps) || warnings != 2 {
		t.Errorf("runs=%d devices=%d warnings=%d", runs, devices, warnings)
	}

	var x float64
	if err := db.QueryRow("SELECT x FROM devices WHERE run_id = ? AND idx = 1", "run-a").Scan(&x); err != nil {
		t.Fatal(err)
	}
	if x != ps[0].X {
		t.Errorf("stored x = %v, want %v", x, ps[0].X)
	}

	var sum int
	if err := db.QueryRow("SELECT SUM(count) FROM bom WHERE run_id = ?", "run-a").Scan(&sum); err != nil {
		t.Fatal(err)
	}
	if sum != len(ps) {
		t.Errorf("bom sum = %d, want %d", sum, len(ps))
	}

	if err := WriteSQLite(ctx, path, Register{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("WriteSQLite(no id) error = %v", err)
	}
}

func TestPlacementsFromRows(t *testing.T) {
	ps, _ := samplePlacements(t)
	got, err := Placements(Rows(ps), 12345.678)
	if err != nil {
		t.Fatalf("Placements() error: %v", err)
	}
	if len(got) != len(ps) {
		t.Fatalf("Placements() = %d, want %d", len(got), len(ps))
	}
	for i, p := range ps {
		g := got[i]
		if g.Category != p.Category || g.Side != p.Side || g.Index != p.Index || g.Rule != -1 {
			t.Errorf("placement %d = %+v, want %+v", i, g, p)
		}
		if math.Abs(g.Distance-p.Distance) > 1e-6 {
			t.Errorf("placement %d distance = %v, want %v", i, g.Distance, p.Distance)
		}
	}

	_, err = Placements([]Row{{Category: "CCTV", Side: "both"}}, 0)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Placements() with side both = %v, want INVALID_FORMAT", err)
	}
	one, err := Placements([]Row{{Category: "VMS"}}, 0)
	if err != nil || one[0].Index != 1 || one[0].Label != "VMS" || one[0].Side != layout.SideCenter {
		t.Errorf("Placements() defaults = %+v, %v", one, err)
	}
}

func TestPlacementsDuplicateIndex(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
	}{
		{"repeated number", []Row{{Index: 1, Category: "CCTV"}, {Index: 2, Category: "CCTV"}, {Index: 1, Category: "VMS"}}},
		{"blank number collides", []Row{{Index: 2, Category: "CCTV"}, {Category: "VMS"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Placements(tt.rows, 0)
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("Placements() error = %v, want INVALID_FORMAT", err)
			}
		})
	}

	ps, err := Placements([]Row{{Index: 7, Category: "CCTV"}, {Category: "VMS"}}, 0)
	if err != nil {
		t.Fatalf("Placements() error: %v", err)
	}
	if ps[0].Index != 7 || ps[1].Index != 2 {
		t.Errorf("indices = %d, %d", ps[0].Index, ps[1].Index)
	}
}
