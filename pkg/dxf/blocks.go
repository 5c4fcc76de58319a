package dxf

import (
	"strings"

	"github.com/paulmach/orb"

	"github.com/highwaype/highwaype/pkg/errors"
)

// Block returns the base point and entities of a block definition as read.
// Nested inserts and unsupported entities are returned as read; see
// [Document.ImportBlocks].
func (d *Document) Block(name string) (orb.Point, []Entity, bool) {
	s, ok := d.sections["BLOCKS"]
	if !ok {
		return orb.Point{}, nil, false
	}
	recs := splitRecords(d.pairs, s.start+2, s.end)
	for k, r := range recs {
		if r.typ != "BLOCK" {
			continue
		}
		body := d.pairs[r.start+1 : r.end]
		var blockName string
		var base orb.Point
		for _, p := range body {
			switch p.Code {
			case 2:
				blockName = p.Value
			case 10:
				base[0] = num(p.Value)
			case 20:
				base[1] = num(p.Value)
			}
		}
		if !strings.EqualFold(blockName, name) {
			continue
		}
		j := k + 1
		for j < len(recs) && recs[j].typ != "ENDBLK" {
			j++
		}
		return base, d.decode(recs[k+1 : j]), true
	}
	return orb.Point{}, nil, false
}

// ImportBlocks copies block definitions from src. Names already defined
// here are skipped. Entities without an encoder and references to blocks
// that are neither defined nor imported are dropped. It returns the names
// that src does not define.
func (d *Document) ImportBlocks(src *Document, names ...string) ([]string, error) {
	var missing []string
	for _, name := range names {
		if d.HasBlock(name) {
			continue
		}
		base, ents, ok := src.Block(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		var nested []string
		for _, e := range ents {
			if ins, ok := e.(Insert); ok && !d.HasBlock(ins.Block) {
				nested = append(nested, ins.Block)
			}
		}
		if len(nested) > 0 {
			if _, err := d.ImportBlocks(src, nested...); err != nil {
				return nil, err
			}
		}

		kept := make([]Entity, 0, len(ents))
		for _, e := range ents {
			switch v := e.(type) {
			case Unknown:
				continue
			case Insert:
				if !d.HasBlock(v.Block) {
					continue
				}
			}
			kept = append(kept, e)
		}
		if err := d.AddBlock(name, base, kept...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "import block %s", name)
		}
	}
	return missing, nil
}
