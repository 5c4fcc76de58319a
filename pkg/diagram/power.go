package diagram

import (
	"math"
	"sort"
	"strings"

	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

// Conductor is a cable size from the conductor table.
type Conductor struct {
	Name       string
	Resistance float64 // Ω/km
	Ampacity   float64 // A
}

// PowerParams holds the electrical constants of a power diagram.
type PowerParams struct {
	Voltage     float64 // V, line-to-line for three phase
	Phases      int     // 1 or 3
	PowerFactor float64
	MaxDropPct  float64 // allowed cumulative drop, percent of Voltage
	Slack       float64 // cable length factor, >= 1
	Conductors  []Conductor
	Loads       map[string]float64 // W per device category
	Feeders     []Source
}

// Defaults applied by [PowerParams.ValidateAndSetDefaults].
const (
	DefaultVoltage     = 380
	DefaultPhases      = 3
	DefaultPowerFactor = 0.9
	DefaultMaxDropPct  = 5
	DefaultSlack       = 1.05
)

// ValidateAndSetDefaults fills zero values and checks the constants.
func (p *PowerParams) ValidateAndSetDefaults() error {
	if p.Voltage == 0 {
		p.Voltage = DefaultVoltage
	}
	if p.Phases == 0 {
		p.Phases = DefaultPhases
	}
	if p.PowerFactor == 0 {
		p.PowerFactor = DefaultPowerFactor
	}
	if p.MaxDropPct == 0 {
		p.MaxDropPct = DefaultMaxDropPct
	}
	if p.Slack == 0 {
		p.Slack = DefaultSlack
	}

	switch {
	case p.Voltage < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "voltage must be positive, got %v", p.Voltage)
	case p.Phases != 1 && p.Phases != 3:
		return errors.New(errors.ErrCodeInvalidConfig, "phases must be 1 or 3, got %d", p.Phases)
	case p.PowerFactor < 0 || p.PowerFactor > 1:
		return errors.New(errors.ErrCodeInvalidConfig, "power factor must be in (0, 1], got %v", p.PowerFactor)
	case p.MaxDropPct < 0 || p.MaxDropPct >= 100:
		return errors.New(errors.ErrCodeInvalidConfig, "max drop must be in (0, 100) percent, got %v", p.MaxDropPct)
	case p.Slack < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "cable slack factor must be at least 1, got %v", p.Slack)
	case len(p.Conductors) == 0:
		return errors.New(errors.ErrCodeInvalidConfig, "conductor table is empty")
	}
	for _, c := range p.Conductors {
		if err := errors.ValidateName("conductor", c.Name); err != nil {
			return err
		}
		if c.Resistance <= 0 || c.Ampacity <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "conductor %s needs positive resistance and ampacity", c.Name)
		}
	}
	for cat, w := range p.Loads {
		if w < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "load of %s is negative", cat)
		}
	}
	return validSources("feeder", p.Feeders)
}

// current returns the line current drawn by a load of w watts.
func (p *PowerParams) current(w float64) float64 {
	if p.Phases == 3 {
		return w / (math.Sqrt(3) * p.Voltage * p.PowerFactor)
	}
	return w / (p.Voltage * p.PowerFactor)
}

// drop returns the voltage drop of current a over l metres of c.
func (p *PowerParams) drop(c Conductor, a, l float64) float64 {
	k := 2.0
	if p.Phases == 3 {
		k = math.Sqrt(3)
	}
	return k * a * c.Resistance * l / 1000
}

// sorted returns the conductor table from smallest to largest.
func (p *PowerParams) sorted() []Conductor {
	cs := append([]Conductor(nil), p.Conductors...)
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Ampacity != cs[j].Ampacity {
			return cs[i].Ampacity < cs[j].Ampacity
		}
		return cs[i].Resistance > cs[j].Resistance
	})
	return cs
}

// BuildPower computes the power distribution diagram of the devices whose
// category has a load. Limit violations are reported as warnings on the
// graph, not as errors.
func BuildPower(ps []layout.Placement, params PowerParams) (*Graph, error) {
	if err := params.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	loads := make(map[string]float64, len(params.Loads))
	for cat, w := range params.Loads {
		loads[strings.ToUpper(cat)] = w
	}
	var powered []layout.Placement
	for _, p := range ps {
		if loads[strings.ToUpper(p.Category)] > 0 {
			powered = append(powered, p)
		}
	}

	g := &Graph{Kind: KindPower}
	for _, f := range params.Feeders {
		g.Nodes = append(g.Nodes, Node{ID: sourceID(f.Name), Kind: NodeSource, Label: f.Name, Distance: f.Distance})
	}
	conductors := params.sorted()
	for _, b := range group(powered, params.Feeders) {
		g.addCircuit(b, &params, conductors, loads)
	}
	return g, nil
}

// circuitState holds the per-device figures of one conductor choice.
type circuitState struct {
	current []float64 // device current
	head    []float64 // trunk current entering tap i
	trunk   []float64 // drop of trunk span i
	branch  []float64 // drop of branch i
	total   []float64 // cumulative drop at device i
	maxDrop float64
}

func (p *PowerParams) evaluate(b branch, c Conductor, loads map[string]float64) circuitState {
	n := len(b.members)
	s := circuitState{
		current: make([]float64, n),
		head:    make([]float64, n),
		trunk:   make([]float64, n),
		branch:  make([]float64, n),
		total:   make([]float64, n),
	}
	for i, m := range b.members {
		s.current[i] = p.current(loads[strings.ToUpper(m.p.Category)])
	}
	for i := n - 1; i >= 0; i-- {
		s.head[i] = s.current[i]
		if i+1 < n {
			s.head[i] += s.head[i+1]
		}
	}
	cum := 0.0
	for i, m := range b.members {
		s.trunk[i] = p.drop(c, s.head[i], m.span*p.Slack)
		s.branch[i] = p.drop(c, s.current[i], math.Abs(m.p.Offset)*p.Slack)
		cum += s.trunk[i]
		s.total[i] = cum + s.branch[i]
		s.maxDrop = math.Max(s.maxDrop, s.total[i])
	}
	return s
}

func (g *Graph) addCircuit(b branch, p *PowerParams, conductors []Conductor, loads map[string]float64) {
	name := b.name()
	limit := p.MaxDropPct / 100 * p.Voltage

	chosen := conductors[len(conductors)-1]
	state := p.evaluate(b, chosen, loads)
	fits := false
	for _, c := range conductors {
		s := p.evaluate(b, c, loads)
		if c.Ampacity >= s.head[0] && s.maxDrop <= limit+1e-9 {
			chosen, state, fits = c, s, true
			break
		}
	}

	circ := Circuit{
		Name:      name,
		Source:    b.src.Name,
		Direction: b.dir,
		Conductor: chosen.Name,
		Current:   state.head[0],
		MaxDrop:   state.maxDrop,
		MaxPct:    state.maxDrop / p.Voltage * 100,
		Violation: !fits,
	}

	prev := sourceID(b.src.Name)
	worst := -1
	for i, m := range b.members {
		tap, dev := tapID(name, i), deviceID(m.p)
		trunkLen := m.span * p.Slack
		branchLen := math.Abs(m.p.Offset) * p.Slack
		over := state.total[i] > limit+1e-9
		if over && (worst < 0 || state.total[i] > state.total[worst]) {
			worst = i
		}

		g.Nodes = append(g.Nodes,
			Node{ID: tap, Kind: NodeTap, Distance: m.p.Distance, Circuit: name},
			Node{
				ID: dev, Kind: NodeDevice, Label: deviceLabel(m.p), Category: m.p.Category,
				Distance: m.p.Distance, Chainage: m.p.Chainage, Circuit: name,
				Load: loads[strings.ToUpper(m.p.Category)], Current: state.current[i],
				Drop: state.total[i], DropPct: state.total[i] / p.Voltage * 100,
				Violation: over,
			},
		)
		g.Edges = append(g.Edges,
			Edge{From: prev, To: tap, Kind: EdgeTrunk, Circuit: name, Length: trunkLen,
				Current: state.head[i], Drop: state.trunk[i], Conductor: chosen.Name,
				Violation: state.head[i] > chosen.Ampacity},
			Edge{From: tap, To: dev, Kind: EdgeBranch, Circuit: name, Length: branchLen,
				Current: state.current[i], Drop: state.branch[i], Conductor: chosen.Name,
				Violation: over},
		)
		circ.Devices = append(circ.Devices, dev)
		circ.Length += trunkLen + branchLen
		prev = tap
	}

	if state.head[0] > chosen.Ampacity {
		g.Warnings = append(g.Warnings, errors.Warnf(errors.ErrCodeConstraintViolation, name,
			"head current %.2f A exceeds %s ampacity %.2f A", state.head[0], chosen.Name, chosen.Ampacity))
	}
	if worst >= 0 {
		m := b.members[worst]
		g.Warnings = append(g.Warnings, errors.Warnf(errors.ErrCodeConstraintViolation, name,
			"voltage drop %.2f%% at %s %s exceeds %.2f%% with %s",
			state.total[worst]/p.Voltage*100, deviceLabel(m.p), m.p.Chainage, p.MaxDropPct, chosen.Name))
	}
	g.Circuits = append(g.Circuits, circ)
}
