package diagram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

const violationColor = "red"

// ToDOT converts g to Graphviz DOT. Circuits run left to right from their
// source; taps are drawn as points.
func ToDOT(g *Graph) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", string(g.Kind))
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=9, arrowhead=none];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(g.Kind, n), ", "))
	}
	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(g.Kind, e), ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(kind Kind, n Node) []string {
	var attrs []string
	switch n.Kind {
	case NodeSource:
		attrs = []string{fmt.Sprintf("label=%q", n.Label), "shape=box", "style=filled", "fillcolor=\"#fff2cc\"", "penwidth=2"}
		if kind == KindNetwork {
			attrs[1] = "shape=box3d"
		}
	case NodeTap:
		return []string{"label=\"\"", "shape=point", "width=0.06"}
	default:
		attrs = []string{fmt.Sprintf("label=%q", deviceText(kind, n)), "shape=box", "style=rounded"}
	}
	if n.Violation {
		attrs = append(attrs, "color="+violationColor, "fontcolor="+violationColor)
	}
	return attrs
}

func deviceText(kind Kind, n Node) string {
	lines := []string{n.Label, n.Chainage}
	if kind == KindPower {
		lines = append(lines, fmt.Sprintf("%.0f W  %.2f A", n.Load, n.Current), fmt.Sprintf("ΔU %.2f V (%.2f%%)", n.Drop, n.DropPct))
	} else {
		lines = append(lines, coreRange(n.FirstCore, n.Cores))
	}
	return strings.Join(lines, "\n")
}

func coreRange(first, n int) string {
	if n == 1 {
		return fmt.Sprintf("core %d", first)
	}
	return fmt.Sprintf("cores %d-%d", first, first+n-1)
}

func edgeAttrs(kind Kind, e Edge) []string {
	var label string
	switch {
	case kind == KindNetwork:
		label = fmt.Sprintf("%dc  %.1f m", e.Cores, e.Length)
	case e.Kind == EdgeTrunk:
		label = fmt.Sprintf("%s  %.1f m\n%.2f A  %.2f V", e.Conductor, e.Length, e.Current, e.Drop)
	default:
		label = fmt.Sprintf("%.1f m", e.Length)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if e.Kind == EdgeBranch {
		attrs = append(attrs, "style=dashed")
	} else {
		attrs = append(attrs, "penwidth=2")
	}
	if e.Violation {
		attrs = append(attrs, "color="+violationColor, "fontcolor="+violationColor)
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
