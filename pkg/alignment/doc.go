// Package alignment turns a route centerline into a station coordinate system.
//
// # Overview
//
// An [Alignment] is an ordered sequence of [Vertex] values. Each vertex carries
// the DXF bulge of the segment that starts at it: zero for a straight segment,
// otherwise tan(θ/4) of a circular arc with included angle θ (positive is
// counter-clockwise). Cumulative arc length along the segments defines the
// station axis, which always starts at 0 and ends at [Alignment.Length].
//
// # Curves
//
// Arcs are evaluated exactly. [Alignment.At] interpolates on the true circle,
// so devices on a tight curve sit on the curve and their tangent is the arc
// tangent, not a chord direction. [Alignment.Flatten] is only used when a
// polyline approximation is needed for output (GeoJSON, drawing overlays).
//
// # Usage
//
//	al, err := alignment.New([]alignment.Vertex{
//	    {Point: orb.Point{0, 0}},
//	    {Point: orb.Point{1000, 0}, Bulge: 0.2},
//	    {Point: orb.Point{1800, 400}},
//	}, false)
//	if err != nil {
//	    return err // INVALID_ALIGNMENT
//	}
//	f, _ := al.At(1250)          // point and tangent at 1250 m
//	pr := al.Project(orb.Point{1200, 35}) // station, offset and side of a point
//
// Several drawing entities can be joined into one path with [Chain] before
// building the alignment. Branches and gaps are rejected.
package alignment
