// Package layout places devices along a route alignment.
//
// A [Rule] describes one device family: a category, a spacing, the station
// range it covers, a lateral offset, the side of the road, and how the
// symbol is oriented. [Place] walks the station axis for every rule and
// returns the merged, numbered [Placement] list together with any clearance
// warnings.
//
// # Stations
//
// Placements fall at start + k*spacing for every k whose station does not
// pass the rule end (with a 1e-6 m tolerance), so a rule covering length L
// yields floor(L/spacing)+1 placements per side. [EndpointTerminal] adds one
// more placement at the rule end when the leftover interval is at least half
// a spacing.
//
// # Orientation
//
// Rotations are degrees counter-clockwise from +X in [0, 360). Parallel
// devices follow the tangent. Perpendicular devices face across the road:
// tangent+90 on the left and on the centerline, tangent-90 on the right.
//
// # Conflicts
//
// Rule ranges outside the alignment, empty ranges, non-positive spacings and
// spacings that would yield more than [MaxStations] devices abort with
// RULE_CONFLICT. Devices at the same point, and devices from different rules
// standing closer than the larger of the two clearances, are reported as
// RULE_CONFLICT warnings, or as an error when [Options.Strict] is set.
//
// [Survey] is the inverse operation: it projects block references already
// in a drawing onto the alignment and numbers them by station.
package layout
