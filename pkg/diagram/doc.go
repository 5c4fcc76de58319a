// Package diagram builds power-distribution and fiber-network system
// diagrams from device placements.
//
// # Power
//
// [BuildPower] feeds every device with a load from its nearest feeder. The
// devices ahead of a feeder (higher distance) and those behind it form two
// radial circuits. Each circuit is a trunk along the centerline with one
// branch per device of length |offset|; both lengths are multiplied by the
// cable slack factor. Drops are resistive:
//
//	I  = P / (V·pf)        single phase
//	I  = P / (√3·V·pf)     three phase
//	ΔV = k·I·R·L / 1000    k = 2 (1φ) or √3 (3φ), R in Ω/km, L in m
//
// The conductor of a circuit is the smallest one whose ampacity carries the
// head current and whose worst cumulative drop stays within the limit. When
// none does, the largest conductor is used and the circuit is reported with
// CONSTRAINT_VIOLATION warnings.
//
// # Network
//
// [BuildNetwork] attaches devices with a core demand to their nearest hub
// and allocates fiber cores sequentially outward along each branch. A trunk
// span carrying more cores than the cable holds is a violation.
//
// # Output
//
// [ToDOT] converts a [Graph] to Graphviz DOT, [RenderSVG] renders it with
// go-graphviz and [Schematic] draws a DXF schematic. Violating nodes and
// edges are drawn in red.
package diagram
