package alignment

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/highwaype/highwaype/pkg/errors"
)

// Chain joins open pieces (polylines, lines, arcs) into a single path.
// Pieces are reversed as needed. Endpoints closer than tol are the same node.
//
// The result is closed when the pieces form a loop. Chain fails with
// INVALID_ALIGNMENT when a node is shared by more than two pieces (a branch)
// or when some pieces cannot be reached from the walk (a gap).
func Chain(pieces [][]Vertex, tol float64) ([]Vertex, bool, error) {
	if len(pieces) == 0 {
		return nil, false, errors.New(errors.ErrCodeInvalidAlignment, "no centerline pieces")
	}
	for i, p := range pieces {
		if len(p) < 2 {
			return nil, false, errors.New(errors.ErrCodeInvalidAlignment, "piece %d has %d vertices", i, len(p))
		}
	}
	if len(pieces) == 1 {
		return append([]Vertex(nil), pieces[0]...), false, nil
	}

	var nodes []orb.Point
	nodeOf := func(p orb.Point) int {
		for i, n := range nodes {
			if planar.Distance(n, p) <= tol {
				return i
			}
		}
		nodes = append(nodes, p)
		return len(nodes) - 1
	}

	type ends struct{ start, end int }
	links := make([]ends, len(pieces))
	for i, p := range pieces {
		links[i] = ends{nodeOf(p[0].Point), nodeOf(p[len(p)-1].Point)}
		if links[i].start == links[i].end {
			return nil, false, errors.New(errors.ErrCodeInvalidAlignment, "piece %d is closed on itself", i)
		}
	}

	degree := make([]int, len(nodes))
	for _, l := range links {
		degree[l.start]++
		degree[l.end]++
	}
	for i, d := range degree {
		if d > 2 {
			p := nodes[i]
			return nil, false, errors.New(errors.ErrCodeInvalidAlignment, "centerline branches at (%.3f, %.3f): %d pieces meet", p[0], p[1], d)
		}
	}

	// Open paths start at a dangling end, preferring one that begins a piece
	// in its drawn direction. Loops start where the first piece starts.
	current := links[0].start
	var dangling []int
	for i, d := range degree {
		if d == 1 {
			dangling = append(dangling, i)
		}
	}
	if len(dangling) > 0 {
		current = dangling[0]
		for _, l := range links {
			if degree[l.start] == 1 {
				current = l.start
				break
			}
		}
	}

	used := make([]bool, len(pieces))
	out := make([]Vertex, 0)
	for count := 0; count < len(pieces); count++ {
		next := -1
		forward := true
		for i, l := range links {
			if used[i] {
				continue
			}
			if l.start == current {
				next = i
				break
			}
			if l.end == current {
				next, forward = i, false
				break
			}
		}
		if next < 0 {
			break
		}
		used[next] = true

		p := pieces[next]
		if !forward {
			p = reverse(p)
			current = links[next].start
		} else {
			current = links[next].end
		}
		if len(out) > 0 {
			out[len(out)-1].Bulge = p[0].Bulge
			p = p[1:]
		}
		out = append(out, p...)
	}

	missing := 0
	for _, u := range used {
		if !u {
			missing++
		}
	}
	if missing > 0 {
		return nil, false, errors.New(errors.ErrCodeInvalidAlignment, "centerline has a gap: %d of %d pieces are not connected", missing, len(pieces))
	}
	return out, len(dangling) == 0, nil
}

// reverse returns the piece traversed backwards. The bulge of segment i moves
// to the vertex that now starts it and changes sign.
func reverse(p []Vertex) []Vertex {
	n := len(p)
	out := make([]Vertex, n)
	for j := 0; j < n; j++ {
		out[j].Point = p[n-1-j].Point
		if j < n-1 {
			out[j].Bulge = -p[n-2-j].Bulge
		}
	}
	return out
}
