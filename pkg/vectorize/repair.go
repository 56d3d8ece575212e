package vectorize

import (
	"math"

	"github.com/ctessum/geom"
)

// valid reports whether the polygon is free of improper crossings: no two
// ring segments intersect at an interior point. Degenerate zero-area rings
// (e.g. single-pixel-wide objects traced out and back) pass; they carry no
// topology to break and rasterize correctly under the inclusive boundary
// test.
func valid(p geom.Polygon) bool {
	segs := polygonSegments(p)
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			a, b := segs[i], segs[j]
			// Segments sharing an endpoint touch legitimately.
			if a.ring == b.ring && (a.next == b.idx || b.next == a.idx) {
				continue
			}
			if segmentsCross(a.p0, a.p1, b.p0, b.p1) {
				return false
			}
		}
	}
	return true
}

type segment struct {
	ring, idx, next int
	p0, p1          geom.Point
}

func polygonSegments(p geom.Polygon) []segment {
	var segs []segment
	for ri, ring := range p {
		n := len(ring)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			segs = append(segs, segment{ring: ri, idx: i, next: j, p0: ring[i], p1: ring[j]})
		}
	}
	return segs
}

// segmentsCross reports whether the open segments (p0,p1) and (q0,q1)
// intersect at a point interior to both.
func segmentsCross(p0, p1, q0, q1 geom.Point) bool {
	d1 := cross(q0, q1, p0)
	d2 := cross(q0, q1, p1)
	d3 := cross(p0, p1, q0)
	d4 := cross(p0, p1, q1)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// repair renodes a topologically invalid polygon by a boolean union with
// itself, the poly-clipping equivalent of a zero-distance buffer. When the
// renoded result consists of multiple disjoint pieces, only the largest by
// area is kept. The second return value is false when no usable geometry
// survives.
func repair(p geom.Polygon) (geom.Polygon, bool) {
	renoded, ok := p.Union(p).(geom.Polygon)
	if !ok || len(renoded) == 0 {
		return nil, false
	}
	return largestPiece(renoded), true
}

// largestPiece splits a multi-ring polygon into its disjoint pieces (a shell
// plus the holes it contains) and returns the piece with the largest net
// area. A single-piece polygon is returned unchanged.
func largestPiece(p geom.Polygon) geom.Polygon {
	if len(p) <= 1 {
		return p
	}
	// A ring's nesting depth is the number of other rings containing it:
	// even depth makes it a shell, odd depth a hole of its innermost
	// containing shell.
	depth := make([]int, len(p))
	parent := make([]int, len(p))
	for i := range p {
		parent[i] = -1
		if len(p[i]) == 0 {
			continue
		}
		for j := range p {
			if i == j || len(p[j]) < 3 {
				continue
			}
			if pointInRing(p[i][0], p[j]) {
				depth[i]++
				if parent[i] < 0 || ringContains(p[parent[i]], p[j][0]) {
					// p[j] is nested deeper than the current parent.
					parent[i] = j
				}
			}
		}
	}

	best := -1
	bestArea := math.Inf(-1)
	for i := range p {
		if depth[i]%2 != 0 {
			continue
		}
		area := math.Abs(ringArea(p[i]))
		for j := range p {
			if depth[j]%2 == 1 && parent[j] == i {
				area -= math.Abs(ringArea(p[j]))
			}
		}
		if area > bestArea {
			best = i
			bestArea = area
		}
	}
	if best < 0 {
		return p
	}
	piece := geom.Polygon{p[best]}
	for j := range p {
		if depth[j]%2 == 1 && parent[j] == best {
			piece = append(piece, p[j])
		}
	}
	return piece
}

func ringContains(ring []geom.Point, pt geom.Point) bool {
	return len(ring) >= 3 && pointInRing(pt, ring)
}

// pointInRing is a standard even-odd crossing test; points exactly on the
// boundary are not guaranteed either way, which is acceptable for the
// ring-nesting classification it supports.
func pointInRing(pt geom.Point, ring []geom.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) &&
			pt.X < (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// ringArea returns the signed area of a ring via the shoelace formula.
func ringArea(ring []geom.Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		sum += (ring[j].X + ring[i].X) * (ring[j].Y - ring[i].Y)
	}
	return sum / 2
}
