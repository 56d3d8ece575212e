// Package rasterize reconstructs labeled rasters from per-object polygons in
// global map coordinates — the inverse of package vectorize. It is used when
// raster-based feature extraction must be re-run after the original
// segmentation rasters have been discarded in favor of the persisted vector
// map.
package rasterize

import (
	"math"

	"github.com/ctessum/geom"

	"tilevec/pkg/raster"
	"tilevec/pkg/vectorize"
)

// FromPolygons creates a labeled raster of the given dimensions from global
// object polygons. For each object the tile's y/x offset is subtracted from
// the exterior-ring coordinates (the stored y-axis inversion is undone) and
// the ring interior is scan-converted into the plane identified by the
// object's (z, t) key. Holes are ignored, matching the persisted-data
// convention.
//
// Objects are processed in ascending (t, z, label) order. Known limitation:
// when two filled regions overlap within one plane, the later-processed
// (larger-keyed) object's label silently overwrites the earlier one's
// pixels.
func FromPolygons(polygons map[vectorize.ObjectKey]geom.Polygon, yOffset, xOffset int, dims raster.Dims) *raster.Raster {
	out := raster.New(dims)
	// New normalizes zero plane counts to 1; range-check against what was
	// actually allocated, not the caller's raw dims.
	dims = out.Dims()
	for _, key := range vectorize.SortedKeys(polygons) {
		poly := polygons[key]
		if len(poly) == 0 || len(poly[0]) < 3 {
			continue
		}
		if key.Z >= dims.Planes || key.T >= dims.Points {
			continue
		}
		ring := localRing(poly[0], yOffset, xOffset)
		fillRing(out.Plane(key.Z, key.T), ring, key.Label)
	}
	return out
}

// localRing maps an exterior ring from global map coordinates to tile-local
// raster coordinates: x shifts by the tile offset and the stored y-up
// coordinate folds back into a row index.
func localRing(shell []geom.Point, yOffset, xOffset int) []geom.Point {
	ring := make([]geom.Point, len(shell))
	for i, p := range shell {
		ring[i] = geom.Point{
			X: p.X - float64(xOffset),
			Y: -p.Y - float64(yOffset),
		}
	}
	return ring
}

// fillRing writes label into every plane cell whose center lies inside the
// ring or on its boundary. Including the boundary keeps round trips exact
// for rings traced through boundary pixel centers, and lets degenerate
// zero-area rings (single-pixel-wide objects) still produce their pixels.
func fillRing(p raster.Plane, ring []geom.Point, label raster.Label) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range ring {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	y0 := clamp(int(math.Ceil(minY)), 0, p.Height-1)
	y1 := clamp(int(math.Floor(maxY)), 0, p.Height-1)
	x0 := clamp(int(math.Ceil(minX)), 0, p.Width-1)
	x1 := clamp(int(math.Floor(maxX)), 0, p.Width-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if coveredByRing(float64(x), float64(y), ring) {
				p.Set(y, x, label)
			}
		}
	}
}

// coveredByRing reports whether (x, y) is inside the ring (even-odd rule) or
// on its boundary.
func coveredByRing(x, y float64, ring []geom.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[j], ring[i]
		if onSegment(x, y, a, b) {
			return true
		}
		if (b.Y > y) != (a.Y > y) &&
			x < (a.X-b.X)*(y-b.Y)/(a.Y-b.Y)+b.X {
			inside = !inside
		}
	}
	return inside
}

// onSegment reports whether (x, y) lies on the closed segment ab.
func onSegment(x, y float64, a, b geom.Point) bool {
	const eps = 1e-9
	crossp := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
	if math.Abs(crossp) > eps {
		return false
	}
	return x >= math.Min(a.X, b.X)-eps && x <= math.Max(a.X, b.X)+eps &&
		y >= math.Min(a.Y, b.Y)-eps && y <= math.Max(a.Y, b.Y)+eps
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
