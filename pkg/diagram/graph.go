package diagram

import (
	"fmt"
	"math"
	"sort"

	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

// Kind is the type of a diagram.
type Kind string

const (
	KindPower   Kind = "power"
	KindNetwork Kind = "network"
)

// NodeKind is the role of a node.
type NodeKind int

const (
	NodeSource NodeKind = iota // feeder or hub
	NodeTap                    // trunk junction of a device branch
	NodeDevice
)

// EdgeKind is the role of an edge.
type EdgeKind int

const (
	EdgeTrunk EdgeKind = iota
	EdgeBranch
)

// Direction tells on which side of its source a circuit runs.
type Direction int

const (
	Ahead  Direction = iota // increasing distance
	Behind                  // decreasing distance
)

func (d Direction) String() string {
	if d == Behind {
		return "behind"
	}
	return "ahead"
}

// Node is a source, tap or device.
type Node struct {
	ID       string
	Kind     NodeKind
	Label    string
	Category string
	Distance float64
	Chainage string
	Circuit  string

	Load    float64 // W
	Current float64 // A
	Drop    float64 // cumulative V
	DropPct float64

	FirstCore int // first allocated core, 1-based
	Cores     int

	Violation bool
}

// Edge is a cable run.
type Edge struct {
	From, To  string
	Kind      EdgeKind
	Circuit   string
	Length    float64 // m, slack included
	Current   float64 // A
	Drop      float64 // V
	Conductor string
	Cores     int // cores carried
	Violation bool
}

// Circuit is a radial run from one source in one direction.
type Circuit struct {
	Name      string
	Source    string
	Direction Direction
	Devices   []string // node IDs, ordered outward
	Conductor string
	Length    float64 // trunk plus branches
	Current   float64 // head current
	MaxDrop   float64
	MaxPct    float64
	Cores     int // head cores
	Violation bool
}

// Graph is a system diagram.
type Graph struct {
	Kind     Kind
	Nodes    []Node
	Edges    []Edge
	Circuits []Circuit
	Warnings []errors.Warning
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Violations reports whether any circuit breaks a limit.
func (g *Graph) Violations() bool {
	for _, c := range g.Circuits {
		if c.Violation {
			return true
		}
	}
	return false
}

// Cable returns the cable length per conductor (power) or per cable type
// (network), for the bill of materials.
func (g *Graph) Cable() map[string]float64 {
	out := make(map[string]float64)
	for _, e := range g.Edges {
		if e.Conductor != "" {
			out[e.Conductor] += e.Length
		}
	}
	return out
}

// Source is a feeder or hub at a distance along the alignment.
type Source struct {
	Name     string
	Distance float64
}

// member is a device on a circuit, in outward order.
type member struct {
	p    layout.Placement
	span float64 // trunk distance from the previous tap, slack excluded
}

// branch groups devices by nearest source and direction. Ties go to the
// first source. Devices at a source run ahead of it.
type branch struct {
	src     Source
	dir     Direction
	members []member
}

func (b branch) name() string { return fmt.Sprintf("%s-%s", b.src.Name, b.dir) }

func group(ps []layout.Placement, srcs []Source) []branch {
	byKey := make(map[[2]int][]layout.Placement)
	for _, p := range ps {
		best := 0
		for i, s := range srcs {
			if math.Abs(p.Distance-s.Distance) < math.Abs(p.Distance-srcs[best].Distance) {
				best = i
			}
		}
		dir := Ahead
		if p.Distance < srcs[best].Distance {
			dir = Behind
		}
		k := [2]int{best, int(dir)}
		byKey[k] = append(byKey[k], p)
	}

	var out []branch
	for i, s := range srcs {
		for _, dir := range []Direction{Behind, Ahead} {
			devs := byKey[[2]int{i, int(dir)}]
			if len(devs) == 0 {
				continue
			}
			sort.SliceStable(devs, func(a, b int) bool {
				return math.Abs(devs[a].Distance-s.Distance) < math.Abs(devs[b].Distance-s.Distance)
			})
			b := branch{src: s, dir: dir}
			prev := s.Distance
			for _, p := range devs {
				b.members = append(b.members, member{p: p, span: math.Abs(p.Distance - prev)})
				prev = p.Distance
			}
			out = append(out, b)
		}
	}
	return out
}

func sourceID(name string) string        { return "SRC:" + name }
func deviceID(p layout.Placement) string { return fmt.Sprintf("DEV:%d", p.Index) }
func tapID(circuit string, i int) string { return fmt.Sprintf("TAP:%s:%d", circuit, i+1) }

func deviceLabel(p layout.Placement) string {
	label := p.Label
	if label == "" {
		label = p.Category
	}
	return label
}

func validSources(kind string, srcs []Source) error {
	if len(srcs) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no %s defined", kind)
	}
	seen := make(map[string]bool)
	for _, s := range srcs {
		if err := errors.ValidateName(kind, s.Name); err != nil {
			return err
		}
		if seen[s.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate %s %q", kind, s.Name)
		}
		seen[s.Name] = true
		if s.Distance < 0 || math.IsNaN(s.Distance) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s %q has invalid distance %v", kind, s.Name, s.Distance)
		}
	}
	return nil
}
