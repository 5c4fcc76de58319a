// Package bom aggregates device placements into a bill of materials.
package bom

import (
	"sort"

	"github.com/highwaype/highwaype/pkg/layout"
)

// Line is the quantity of one device category.
type Line struct {
	Category  string         `json:"category"`
	Label     string         `json:"label"`
	Block     string         `json:"block"`
	Count     int            `json:"count"`
	BySegment map[string]int `json:"by_segment"`
}

// Item is a bulk material measured in a unit, such as cable metres.
type Item struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
}

// BOM is a bill of materials. Lines are sorted by category, segments are in
// station order.
type BOM struct {
	Lines    []Line   `json:"lines"`
	Segments []string `json:"segments"`
	Items    []Item   `json:"items,omitempty"`
	Total    int      `json:"total"`
}

// Build counts placements per category and per segment. The sum of all
// line counts equals len(ps).
func Build(ps []layout.Placement) *BOM {
	b := &BOM{}
	lines := make(map[string]*Line)
	seen := make(map[string]bool)
	for _, p := range ps {
		l, ok := lines[p.Category]
		if !ok {
			l = &Line{Category: p.Category, Label: p.Label, Block: p.Block, BySegment: make(map[string]int)}
			lines[p.Category] = l
		}
		l.Count++
		l.BySegment[p.Segment]++
		if !seen[p.Segment] {
			seen[p.Segment] = true
			b.Segments = append(b.Segments, p.Segment)
		}
		b.Total++
	}

	for _, l := range lines {
		b.Lines = append(b.Lines, *l)
	}
	sort.Slice(b.Lines, func(i, j int) bool { return b.Lines[i].Category < b.Lines[j].Category })
	return b
}

// AddItem adds quantity to the named item, creating it on first use.
func (b *BOM) AddItem(name, unit string, quantity float64) {
	for i := range b.Items {
		if b.Items[i].Name == name && b.Items[i].Unit == unit {
			b.Items[i].Quantity += quantity
			return
		}
	}
	b.Items = append(b.Items, Item{Name: name, Unit: unit, Quantity: quantity})
}

// Count returns the number of devices of a category.
func (b *BOM) Count(category string) int {
	for _, l := range b.Lines {
		if l.Category == category {
			return l.Count
		}
	}
	return 0
}
