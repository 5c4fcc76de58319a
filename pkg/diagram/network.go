package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

// NetworkParams holds the fiber constants of a network diagram.
type NetworkParams struct {
	Cable      string         // cable type name, "<n>-core" when empty
	CableCores int            // cores per trunk cable
	Slack      float64        // cable length factor, 1 when zero
	Cores      map[string]int // cores per device category
	Hubs       []Source
}

// ValidateAndSetDefaults fills zero values and checks the constants.
func (p *NetworkParams) ValidateAndSetDefaults() error {
	if p.CableCores <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "fiber cable must have cores, got %d", p.CableCores)
	}
	if p.Cable == "" {
		p.Cable = fmt.Sprintf("%d-core", p.CableCores)
	}
	if p.Slack == 0 {
		p.Slack = 1
	}
	if p.Slack < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "cable slack factor must be at least 1, got %v", p.Slack)
	}
	for cat, n := range p.Cores {
		if n < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "core demand of %s is negative", cat)
		}
	}
	return validSources("hub", p.Hubs)
}

// BuildNetwork computes the fiber network diagram of the devices whose
// category needs cores. Each branch allocates cores from 1 outward.
func BuildNetwork(ps []layout.Placement, params NetworkParams) (*Graph, error) {
	if err := params.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	cores := make(map[string]int, len(params.Cores))
	for cat, n := range params.Cores {
		cores[strings.ToUpper(cat)] = n
	}
	var linked []layout.Placement
	for _, p := range ps {
		if cores[strings.ToUpper(p.Category)] > 0 {
			linked = append(linked, p)
		}
	}

	g := &Graph{Kind: KindNetwork}
	for _, h := range params.Hubs {
		g.Nodes = append(g.Nodes, Node{ID: sourceID(h.Name), Kind: NodeSource, Label: h.Name, Distance: h.Distance})
	}
	for _, b := range group(linked, params.Hubs) {
		g.addBranch(b, &params, cores)
	}
	return g, nil
}

func (g *Graph) addBranch(b branch, p *NetworkParams, cores map[string]int) {
	name := b.name()
	total := 0
	for _, m := range b.members {
		total += cores[strings.ToUpper(m.p.Category)]
	}

	circ := Circuit{Name: name, Source: b.src.Name, Direction: b.dir, Conductor: p.Cable, Cores: total}
	prev := sourceID(b.src.Name)
	next := 1
	for i, m := range b.members {
		need := cores[strings.ToUpper(m.p.Category)]
		carried := total - next + 1
		tap, dev := tapID(name, i), deviceID(m.p)
		trunkLen := m.span * p.Slack
		branchLen := math.Abs(m.p.Offset) * p.Slack

		g.Nodes = append(g.Nodes,
			Node{ID: tap, Kind: NodeTap, Distance: m.p.Distance, Circuit: name},
			Node{
				ID: dev, Kind: NodeDevice, Label: deviceLabel(m.p), Category: m.p.Category,
				Distance: m.p.Distance, Chainage: m.p.Chainage, Circuit: name,
				FirstCore: next, Cores: need, Violation: next+need-1 > p.CableCores,
			},
		)
		g.Edges = append(g.Edges,
			Edge{From: prev, To: tap, Kind: EdgeTrunk, Circuit: name, Length: trunkLen,
				Conductor: p.Cable, Cores: carried, Violation: carried > p.CableCores},
			Edge{From: tap, To: dev, Kind: EdgeBranch, Circuit: name, Length: branchLen,
				Conductor: p.Cable, Cores: need},
		)
		circ.Devices = append(circ.Devices, dev)
		circ.Length += trunkLen + branchLen
		next += need
		prev = tap
	}

	if total > p.CableCores {
		circ.Violation = true
		g.Warnings = append(g.Warnings, errors.Warnf(errors.ErrCodeConstraintViolation, name,
			"branch needs %d cores, %s has %d", total, p.Cable, p.CableCores))
	}
	g.Circuits = append(g.Circuits, circ)
}
