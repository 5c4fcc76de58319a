package report

import (
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/highwaype/highwaype/pkg/bom"
	"github.com/highwaype/highwaype/pkg/errors"
)

// Sheet names.
const (
	SheetLocations = "Locations"
	SheetWarnings  = "Warnings"
	SheetBOM       = "BOM"
)

// headerFill is the location table header color.
const headerFill = "D7E4BC"

// Meta is written into the workbook document properties.
type Meta struct {
	RunID   string // stored as the document identifier
	Title   string
	Source  string // input drawing
	Version string // tool version
}

// WriteLocationsXLSX writes the location table, plus a warnings sheet when
// there are warnings.
func WriteLocationsXLSX(w io.Writer, rows []Row, warnings []errors.Warning, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLocations); err != nil {
		return xlsxErr(err)
	}
	sw := sheetWriter{f: f, sheet: SheetLocations}
	sw.row(toAny(Columns)...)
	for _, r := range rows {
		sw.row(r.values()...)
	}
	sw.header(len(Columns))
	sw.numbers("E", "J", len(rows))
	sw.widths(map[string]float64{"A": 6, "B": 20, "C": 14, "D": 15, "E": 13, "F": 8, "G": 11, "H": 14, "I": 14, "J": 14, "K": 12, "L": 14})
	sw.freeze()

	if len(warnings) > 0 {
		if _, err := f.NewSheet(SheetWarnings); err != nil {
			return xlsxErr(err)
		}
		ww := sheetWriter{f: f, sheet: SheetWarnings}
		ww.row("Code", "Subject", "Message")
		for _, wn := range warnings {
			ww.row(string(wn.Code), wn.Subject, wn.Message)
		}
		ww.header(3)
		ww.widths(map[string]float64{"A": 24, "B": 20, "C": 90})
		if sw.err == nil {
			sw.err = ww.err
		}
	}
	if sw.err != nil {
		return xlsxErr(sw.err)
	}
	return save(f, w, meta)
}

// WriteBOMXLSX writes the bill of materials with one count column per
// segment and a materials block for bulk items.
func WriteBOMXLSX(w io.Writer, b *bom.BOM, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetBOM); err != nil {
		return xlsxErr(err)
	}
	sw := sheetWriter{f: f, sheet: SheetBOM}

	head := []any{"Category", "Device", "Block"}
	for _, s := range b.Segments {
		head = append(head, s)
	}
	head = append(head, "Total")
	sw.row(head...)

	totals := make([]int, len(b.Segments))
	for _, l := range b.Lines {
		cells := []any{l.Category, l.Label, l.Block}
		for i, s := range b.Segments {
			cells = append(cells, l.BySegment[s])
			totals[i] += l.BySegment[s]
		}
		sw.row(append(cells, l.Count)...)
	}
	foot := []any{"Total", "", ""}
	for _, n := range totals {
		foot = append(foot, n)
	}
	sw.row(append(foot, b.Total)...)
	sw.header(len(head))
	sw.bold(sw.n)

	if len(b.Items) > 0 {
		sw.row()
		sw.row("Material", "Unit", "Quantity")
		sw.bold(sw.n)
		for _, it := range b.Items {
			sw.row(it.Name, it.Unit, it.Quantity)
		}
	}
	sw.widths(map[string]float64{"A": 22, "B": 20, "C": 14})
	sw.freeze()
	if sw.err != nil {
		return xlsxErr(sw.err)
	}
	return save(f, w, meta)
}

// ReadXLSX reads a location table written by [WriteLocationsXLSX]. The
// Locations sheet is used when present, otherwise the first sheet.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "open workbook")
	}
	defer f.Close()

	sheet := SheetLocations
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "workbook has no sheets")
		}
		sheet = list[0]
	}
	recs, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read sheet %s", sheet)
	}
	return parseRecords(recs)
}

func parseRecords(recs [][]string) ([]Row, error) {
	if len(recs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "location table is empty")
	}
	h, err := parseHeader(recs[0])
	if err != nil {
		return nil, err
	}
	var out []Row
	for i, rec := range recs[1:] {
		if blank(rec) {
			continue
		}
		r, err := h.row(rec, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func save(f *excelize.File, w io.Writer, meta Meta) error {
	props := &excelize.DocProperties{
		Creator:    "highwaype",
		Identifier: meta.RunID,
		Title:      meta.Title,
		Version:    meta.Version,
	}
	if meta.Source != "" {
		props.Description = "source: " + meta.Source
	}
	if err := f.SetDocProps(props); err != nil {
		return xlsxErr(err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return xlsxErr(err)
	}
	return nil
}

func xlsxErr(err error) error {
	return errors.Wrap(errors.ErrCodeInternal, err, "write workbook")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	n     int // rows written
	err   error
}

func (s *sheetWriter) row(cells ...any) {
	s.n++
	if s.err != nil || len(cells) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, s.n)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetSheetRow(s.sheet, cell, &cells)
}

func (s *sheetWriter) header(cols int) {
	if s.err != nil {
		return
	}
	style, err := s.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top", WrapText: true},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		s.err = err
		return
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.sheet, "A1", last, style)
}

func (s *sheetWriter) bold(row int) {
	if s.err != nil {
		return
	}
	style, err := s.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		s.err = err
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(3, row)
	s.err = s.f.SetCellStyle(s.sheet, first, last, style)
}

// numbers shows columns from..to of the data rows with three decimals.
func (s *sheetWriter) numbers(from, to string, rows int) {
	if s.err != nil || rows == 0 {
		return
	}
	format := "0.000"
	style, err := s.f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.sheet, from+"2", to+strconv.Itoa(rows+1), style)
}

func (s *sheetWriter) widths(cols map[string]float64) {
	for col, w := range cols {
		if s.err != nil {
			return
		}
		s.err = s.f.SetColWidth(s.sheet, col, col, w)
	}
}

func (s *sheetWriter) freeze() {
	if s.err != nil {
		return
	}
	s.err = s.f.SetPanes(s.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
