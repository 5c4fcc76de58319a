package layout

import (
	"math"
	"strings"

	"github.com/highwaype/highwaype/pkg/errors"
)

// Side selects where a rule places devices relative to the centerline.
type Side int

const (
	SideCenter Side = iota
	SideLeft
	SideRight
	SideBoth
)

var sideNames = map[Side]string{
	SideCenter: "center",
	SideLeft:   "left",
	SideRight:  "right",
	SideBoth:   "both",
}

func (s Side) String() string {
	if n, ok := sideNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseSide parses "center", "left", "right" or "both".
func ParseSide(s string) (Side, error) {
	for side, name := range sideNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return side, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown side %q (want center, left, right or both)", s)
}

// Orientation selects how a device symbol is rotated.
type Orientation int

const (
	Perpendicular Orientation = iota
	Parallel
)

func (o Orientation) String() string {
	if o == Parallel {
		return "parallel"
	}
	return "perpendicular"
}

// ParseOrientation parses "perpendicular" or "parallel".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perpendicular":
		return Perpendicular, nil
	case "parallel":
		return Parallel, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown orientation %q (want perpendicular or parallel)", s)
}

// Endpoint selects what happens to the partial interval before a rule end.
type Endpoint int

const (
	// EndpointFloor places devices only at whole multiples of the spacing.
	EndpointFloor Endpoint = iota
	// EndpointTerminal also places a device at the rule end when the
	// leftover interval is at least half a spacing.
	EndpointTerminal
)

func (e Endpoint) String() string {
	if e == EndpointTerminal {
		return "terminal"
	}
	return "floor"
}

// ParseEndpoint parses "floor" or "terminal".
func ParseEndpoint(s string) (Endpoint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "floor":
		return EndpointFloor, nil
	case "terminal":
		return EndpointTerminal, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown endpoint policy %q (want floor or terminal)", s)
}

// Rule places one device family at a fixed spacing.
type Rule struct {
	Category    string // device category, e.g. CCTV
	Label       string // display name, Category when empty
	Block       string // drawing block, Category when empty
	Spacing     float64
	Start       float64 // first station (distance along the alignment)
	End         float64 // last station, the alignment end when zero
	Offset      float64 // lateral distance from the centerline, >= 0
	Side        Side
	Orientation Orientation
	Endpoint    Endpoint
	Clearance   float64 // minimum distance to devices of other rules
}

// Validate checks the fields that do not depend on the alignment.
func (r Rule) Validate() error {
	if err := errors.ValidateName("device category", r.Category); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"spacing", r.Spacing}, {"start", r.Start}, {"end", r.End},
		{"offset", r.Offset}, {"clearance", r.Clearance},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "rule %s: %s is not finite", r.Category, f.name)
		}
	}
	if r.Offset < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "rule %s: offset must not be negative, got %g", r.Category, r.Offset)
	}
	if r.Clearance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "rule %s: clearance must not be negative, got %g", r.Category, r.Clearance)
	}
	if _, ok := sideNames[r.Side]; !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "rule %s: invalid side %d", r.Category, r.Side)
	}
	return nil
}

// label returns the display name.
func (r Rule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Category
}

// BlockName returns the drawing block the rule inserts.
func (r Rule) BlockName() string {
	if r.Block != "" {
		return r.Block
	}
	return r.Category
}

// sides expands SideBoth.
func (r Rule) sides() []Side {
	if r.Side == SideBoth {
		return []Side{SideLeft, SideRight}
	}
	return []Side{r.Side}
}

// MaxStations caps the number of stations a single rule may generate. A
// spacing that would exceed it is almost certainly a unit error.
const MaxStations = 1_000_000

// span resolves the station range against an alignment of length l and
// checks it.
func (r Rule) span(l float64) (float64, float64, error) {
	end := r.End
	if end == 0 {
		end = l
	}
	switch {
	case r.Spacing <= 0:
		return 0, 0, errors.New(errors.ErrCodeRuleConflict, "rule %s: spacing must be positive, got %g", r.Category, r.Spacing)
	case r.Start < -tolerance || r.Start > l+tolerance:
		return 0, 0, errors.New(errors.ErrCodeRuleConflict, "rule %s: start %.3f outside alignment [0, %.3f]", r.Category, r.Start, l)
	case end < -tolerance || end > l+tolerance:
		return 0, 0, errors.New(errors.ErrCodeRuleConflict, "rule %s: end %.3f outside alignment [0, %.3f]", r.Category, end, l)
	case r.Start >= end:
		return 0, 0, errors.New(errors.ErrCodeRuleConflict, "rule %s: start %.3f is not before end %.3f", r.Category, r.Start, end)
	case (end-r.Start)/r.Spacing+1 > MaxStations:
		return 0, 0, errors.New(errors.ErrCodeRuleConflict, "rule %s: spacing %g over %.3f m exceeds %d stations", r.Category, r.Spacing, end-r.Start, MaxStations)
	}
	return math.Max(0, r.Start), math.Min(l, end), nil
}

// stations returns the distances a rule covers within [start, end].
func (r Rule) stations(start, end float64) []float64 {
	n := int(math.Floor((end-start+tolerance)/r.Spacing)) + 1
	out := make([]float64, 0, n+1)
	for k := 0; k < n; k++ {
		out = append(out, math.Min(end, start+float64(k)*r.Spacing))
	}
	if r.Endpoint == EndpointTerminal {
		last := out[len(out)-1]
		if rest := end - last; rest > tolerance && rest >= r.Spacing/2-tolerance {
			out = append(out, end)
		}
	}
	return out
}
