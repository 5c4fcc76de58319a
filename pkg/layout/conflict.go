package layout

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/highwaype/highwaype/pkg/errors"
)

// minCell bounds the grid cell size when no rule sets a clearance.
const minCell = 1.0

type cell struct{ x, y int64 }

// conflicts reports pairs of placements that overlap. Two placements at the
// same point always conflict, even when they come from one rule. Placements
// from different rules also conflict when they stand closer than the larger
// of their clearances. Placements are bucketed in a grid whose cell size is
// at least the largest clearance, so only neighbouring cells are compared.
func conflicts(ps []Placement, rules []Rule) []errors.Warning {
	if len(ps) < 2 {
		return nil
	}
	size := minCell
	for _, r := range rules {
		size = math.Max(size, r.Clearance)
	}

	key := func(p orb.Point) cell {
		return cell{int64(math.Floor(p[0] / size)), int64(math.Floor(p[1] / size))}
	}
	grid := make(map[cell][]int)
	for i, p := range ps {
		k := key(p.Point())
		grid[k] = append(grid[k], i)
	}

	var out []errors.Warning
	for i, a := range ps {
		k := key(a.Point())
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, j := range grid[cell{k.x + dx, k.y + dy}] {
					if j <= i {
						continue
					}
					b := ps[j]
					d := planar.Distance(a.Point(), b.Point())
					if d <= tolerance {
						out = append(out, errors.Warnf(errors.ErrCodeRuleConflict,
							a.Category+"/"+b.Category,
							"%s #%d at %s coincides with %s #%d at %s",
							a.Label, a.Index, a.Chainage, b.Label, b.Index, b.Chainage))
						continue
					}
					if a.Rule == b.Rule {
						continue
					}
					limit := math.Max(rules[a.Rule].Clearance, rules[b.Rule].Clearance)
					if d < limit-tolerance {
						out = append(out, errors.Warnf(errors.ErrCodeRuleConflict,
							a.Category+"/"+b.Category,
							"%s #%d at %s is %.2f m from %s #%d at %s (clearance %.2f m)",
							a.Label, a.Index, a.Chainage, d, b.Label, b.Index, b.Chainage, limit))
					}
				}
			}
		}
	}
	return out
}
