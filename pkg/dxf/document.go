package dxf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/highwaype/highwaype/pkg/errors"
)

// Pair is one group code and its value.
type Pair struct {
	Code  int
	Value string
}

// Version strings of the $ACADVER header variable.
const (
	R12   = "AC1009"
	R13   = "AC1012"
	R2000 = "AC1015"
)

const binarySentinel = "AutoCAD Binary DXF"

// Document is a DXF drawing held as raw pairs plus pending additions.
type Document struct {
	pairs []Pair

	version  string
	handseed uint64
	seedIdx  int // index of the $HANDSEED value pair, -1 if absent

	sections map[string]span
	layerTab table
	blockTab table

	layers map[string]bool // upper-case names
	blocks map[string]bool

	// Pending additions, already encoded.
	newLayers  []Pair
	newRecords []Pair
	newBlocks  []Pair
	newEnts    []Pair
	nLayers    int
	nRecords   int

	layouts layoutIndex
}

// span is a SECTION: start is the index of "0 SECTION", end of "0 ENDSEC".
type span struct{ start, end int }

// table is a TABLE inside the TABLES section.
type table struct {
	found    bool
	end      int    // index of "0 ENDTAB"
	countIdx int    // index of the 70 max-entries pair, -1 if absent
	handle   string // table handle, modern drawings only
	modelRec string // *Model_Space block record handle (BLOCK_RECORD only)
}

// Read parses an ASCII DXF drawing.
func Read(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(binarySentinel)); string(head) == binarySentinel {
		return nil, errors.New(errors.ErrCodeUnsupported, "binary DXF is not supported")
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var pairs []Pair
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if line == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		code, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidDrawing, "line %d: invalid group code %q", line, raw)
		}
		if !sc.Scan() {
			return nil, errors.New(errors.ErrCodeInvalidDrawing, "line %d: group code %d has no value", line, code)
		}
		line++
		pairs = append(pairs, Pair{Code: code, Value: valueOf(code, sc.Text())})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "read drawing")
	}
	if len(pairs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDrawing, "empty drawing")
	}

	doc := &Document{pairs: pairs}
	if err := doc.index(); err != nil {
		return nil, err
	}
	return doc, nil
}

// valueOf trims line endings, and surrounding blanks on non-text values.
func valueOf(code int, s string) string {
	s = strings.TrimRight(s, "\r")
	if isText(code) {
		return s
	}
	return strings.TrimSpace(s)
}

func isText(code int) bool {
	return code == 1 || code == 3 || (code >= 1000 && code <= 1009)
}

// index locates sections, tables, layers, blocks and header variables.
func (d *Document) index() error {
	d.sections = make(map[string]span)
	d.layers = make(map[string]bool)
	d.blocks = make(map[string]bool)
	d.seedIdx = -1
	d.version = R12

	for i := 0; i < len(d.pairs); i++ {
		p := d.pairs[i]
		if p.Code != 0 || p.Value != "SECTION" {
			continue
		}
		if i+1 >= len(d.pairs) || d.pairs[i+1].Code != 2 {
			return errors.New(errors.ErrCodeInvalidDrawing, "section at pair %d has no name", i)
		}
		name := d.pairs[i+1].Value
		end := i + 2
		for end < len(d.pairs) && !(d.pairs[end].Code == 0 && d.pairs[end].Value == "ENDSEC") {
			end++
		}
		if end == len(d.pairs) {
			return errors.New(errors.ErrCodeInvalidDrawing, "section %s is not terminated", name)
		}
		d.sections[name] = span{start: i, end: end}
		i = end
	}
	if len(d.sections) == 0 {
		return errors.New(errors.ErrCodeInvalidDrawing, "drawing has no sections")
	}

	if s, ok := d.sections["HEADER"]; ok {
		d.indexHeader(s)
	}
	if s, ok := d.sections["TABLES"]; ok {
		d.indexTables(s)
	}
	if s, ok := d.sections["BLOCKS"]; ok {
		for i := s.start + 2; i < s.end; i++ {
			if d.pairs[i].Code == 0 && d.pairs[i].Value == "BLOCK" {
				if name, ok := d.lookup(i, s.end, 2); ok {
					d.blocks[strings.ToUpper(name)] = true
				}
			}
		}
	}
	d.indexObjects()
	return nil
}

func (d *Document) indexHeader(s span) {
	for i := s.start + 2; i+1 < s.end; i++ {
		if d.pairs[i].Code != 9 {
			continue
		}
		switch d.pairs[i].Value {
		case "$ACADVER":
			d.version = strings.TrimSpace(d.pairs[i+1].Value)
		case "$HANDSEED":
			if v, err := strconv.ParseUint(d.pairs[i+1].Value, 16, 64); err == nil {
				d.handseed = v
				d.seedIdx = i + 1
			}
		}
	}
}

func (d *Document) indexTables(s span) {
	for i := s.start + 2; i < s.end; i++ {
		if d.pairs[i].Code != 0 || d.pairs[i].Value != "TABLE" {
			continue
		}
		name, _ := d.lookup(i, s.end, 2)
		t := table{found: true, countIdx: -1}
		j := i + 1
		for ; j < s.end && d.pairs[j].Code != 0; j++ {
			switch d.pairs[j].Code {
			case 5:
				t.handle = d.pairs[j].Value
			case 70:
				t.countIdx = j
			}
		}
		for ; j < s.end && !(d.pairs[j].Code == 0 && d.pairs[j].Value == "ENDTAB"); j++ {
			if d.pairs[j].Code != 0 {
				continue
			}
			entry, _ := d.lookup(j, s.end, 2)
			switch {
			case name == "LAYER" && d.pairs[j].Value == "LAYER":
				d.layers[strings.ToUpper(entry)] = true
			case name == "BLOCK_RECORD" && strings.EqualFold(entry, "*Model_Space"):
				t.modelRec, _ = d.lookup(j, s.end, 5)
			}
		}
		t.end = j
		switch name {
		case "LAYER":
			d.layerTab = t
		case "BLOCK_RECORD":
			d.blockTab = t
		}
		i = j
	}
}

// lookup returns the first value with the given code in the record that
// starts at index i.
func (d *Document) lookup(i, limit, code int) (string, bool) {
	for j := i + 1; j < limit && d.pairs[j].Code != 0; j++ {
		if d.pairs[j].Code == code {
			return d.pairs[j].Value, true
		}
	}
	return "", false
}

// Version returns the $ACADVER of the drawing, AC1009 when absent.
func (d *Document) Version() string { return d.version }

// Modern reports whether the drawing is R13 or later.
func (d *Document) Modern() bool { return d.version >= R13 }

// HasLayer reports whether a layer exists or has been added.
// Layer names are case-insensitive.
func (d *Document) HasLayer(name string) bool { return d.layers[strings.ToUpper(name)] }

// HasBlock reports whether a block definition exists or has been added.
func (d *Document) HasBlock(name string) bool { return d.blocks[strings.ToUpper(name)] }

// Blocks returns the names of user block definitions, sorted.
// Layout blocks such as *Model_Space are omitted.
func (d *Document) Blocks() []string {
	var out []string
	for name := range d.blocks {
		if !strings.HasPrefix(name, "*") {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Pairs returns a copy of the raw pairs read from the drawing.
func (d *Document) Pairs() []Pair {
	out := make([]Pair, len(d.pairs))
	copy(out, d.pairs)
	return out
}

// SetAttrib rewrites the value of an attribute read from this document.
func (d *Document) SetAttrib(a Attrib, value string) error {
	if a.index <= 0 || a.index >= len(d.pairs) || d.pairs[a.index].Code != 1 {
		return errors.New(errors.ErrCodeInvalidDrawing, "attribute %s does not belong to this drawing", a.Tag)
	}
	d.pairs[a.index].Value = value
	return nil
}

// Write encodes the drawing with its pending additions.
func (d *Document) Write(w io.Writer) error {
	inserts := d.plan()

	bw := bufio.NewWriter(w)
	emit := func(ps []Pair) {
		for _, p := range ps {
			fmt.Fprintf(bw, "%3d\n%s\n", p.Code, p.Value)
		}
	}

	sawEOF := false
	for i, p := range d.pairs {
		emit(inserts[i])
		switch {
		case i == d.seedIdx:
			p.Value = strings.ToUpper(strconv.FormatUint(d.handseed, 16))
		case p.Code == 70 && i == d.layerTab.countIdx && d.nLayers > 0:
			p.Value = bumpCount(p.Value, d.nLayers)
		case p.Code == 70 && i == d.blockTab.countIdx && d.nRecords > 0:
			p.Value = bumpCount(p.Value, d.nRecords)
		case p.Code == 0 && p.Value == "EOF":
			sawEOF = true
		}
		emit([]Pair{p})
	}
	emit(inserts[len(d.pairs)])
	if !sawEOF {
		emit([]Pair{{0, "EOF"}})
	}
	return bw.Flush()
}

// Bytes returns the encoded drawing.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bumpCount(v string, n int) string {
	c, err := strconv.Atoi(v)
	if err != nil {
		return v
	}
	return strconv.Itoa(c + n)
}

// plan maps pair indices to the pending pairs written just before them.
// Missing tables and sections are created around the additions.
func (d *Document) plan() map[int][]Pair {
	out := make(map[int][]Pair)
	eof := len(d.pairs)
	for i, p := range d.pairs {
		if p.Code == 0 && p.Value == "EOF" {
			eof = i
			break
		}
	}
	before := func(names ...string) int {
		for _, n := range names {
			if s, ok := d.sections[n]; ok {
				return s.start
			}
		}
		return eof
	}
	section := func(name string, body []Pair) []Pair {
		ps := []Pair{{0, "SECTION"}, {2, name}}
		ps = append(ps, body...)
		return append(ps, Pair{0, "ENDSEC"})
	}

	if len(d.newLayers) > 0 {
		switch {
		case d.layerTab.found:
			out[d.layerTab.end] = append(out[d.layerTab.end], d.newLayers...)
		default:
			tab := []Pair{{0, "TABLE"}, {2, "LAYER"}, {70, strconv.Itoa(d.nLayers)}}
			tab = append(tab, d.newLayers...)
			tab = append(tab, Pair{0, "ENDTAB"})
			if s, ok := d.sections["TABLES"]; ok {
				out[s.end] = append(out[s.end], tab...)
			} else {
				at := before("BLOCKS", "ENTITIES", "OBJECTS")
				out[at] = append(out[at], section("TABLES", tab)...)
			}
		}
	}
	if len(d.newRecords) > 0 && d.blockTab.found {
		out[d.blockTab.end] = append(out[d.blockTab.end], d.newRecords...)
	}
	if len(d.newBlocks) > 0 {
		if s, ok := d.sections["BLOCKS"]; ok {
			out[s.end] = append(out[s.end], d.newBlocks...)
		} else {
			at := before("ENTITIES", "OBJECTS")
			out[at] = append(out[at], section("BLOCKS", d.newBlocks)...)
		}
	}
	if len(d.newEnts) > 0 {
		if s, ok := d.sections["ENTITIES"]; ok {
			out[s.end] = append(out[s.end], d.newEnts...)
		} else {
			at := before("OBJECTS")
			out[at] = append(out[at], section("ENTITIES", d.newEnts)...)
		}
	}
	d.planObjects(out, eof)
	return out
}

// New returns an empty R12 drawing with layer 0.
func New() *Document {
	pairs := []Pair{
		{0, "SECTION"}, {2, "HEADER"},
		{9, "$ACADVER"}, {1, R12},
		{9, "$INSBASE"}, {10, "0.0"}, {20, "0.0"}, {30, "0.0"},
		{0, "ENDSEC"},
		{0, "SECTION"}, {2, "TABLES"},
		{0, "TABLE"}, {2, "LAYER"}, {70, "1"},
		{0, "LAYER"}, {2, "0"}, {70, "0"}, {62, "7"}, {6, "CONTINUOUS"},
		{0, "ENDTAB"},
		{0, "ENDSEC"},
		{0, "SECTION"}, {2, "BLOCKS"},
		{0, "ENDSEC"},
		{0, "SECTION"}, {2, "ENTITIES"},
		{0, "ENDSEC"},
		{0, "EOF"},
	}
	doc := &Document{pairs: pairs}
	// The skeleton is well formed.
	_ = doc.index()
	return doc
}
