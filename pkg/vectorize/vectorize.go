// Package vectorize converts labeled rasters into per-object polygons in
// global map coordinates. Each distinct label in a (time point, z-plane)
// raster plane yields exactly one polygon with optional holes; objects whose
// geometry degenerates are represented by a small placeholder square rather
// than dropped, so downstream consumers can rely on the object count.
package vectorize

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ctessum/geom"

	"tilevec/pkg/raster"
)

// DefaultTolerance is the default simplification tolerance in pixels:
// contour points may move by up to this distance when the polygon is
// simplified for storage and rendering.
const DefaultTolerance = 2.0

// ObjectKey identifies one segmented object across representations: the
// time point, z-plane and raster label it originated from.
type ObjectKey struct {
	T, Z  int
	Label raster.Label
}

// RepairError reports a polygon that remained topologically invalid after
// the self-union repair. It is fatal for the affected object and indicates a
// segmentation defect upstream; callers should surface the full
// (tile, t, z, label) identity so the offending object can be re-segmented.
type RepairError struct {
	// Tile is filled in by callers that know which tile the raster
	// belongs to; it is empty at this layer.
	Tile  string
	T, Z  int
	Label raster.Label
}

func (e *RepairError) Error() string {
	if e.Tile == "" {
		return fmt.Sprintf("vectorize: polygon for object (t=%d z=%d label=%d) is invalid after repair",
			e.T, e.Z, e.Label)
	}
	return fmt.Sprintf("vectorize: polygon for object (tile=%s t=%d z=%d label=%d) is invalid after repair",
		e.Tile, e.T, e.Z, e.Label)
}

// ToPolygons creates a polygon representation of every segmented object in
// the raster. Polygon coordinates are global: the given y/x offsets (the
// tile's aligned global position) are added to the tile-local pixel
// coordinates, and the y-axis is inverted to match the y-up storage and
// display convention. Polygons are simplified to within tolerance pixels;
// a tolerance of 0 keeps the traced contours unchanged.
//
// The result holds exactly one polygon per distinct label per (t, z) plane.
// The input raster is never modified.
func ToPolygons(r *raster.Raster, yOffset, xOffset int, tolerance float64) (map[ObjectKey]geom.Polygon, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	d := r.Dims()
	polygons := make(map[ObjectKey]geom.Polygon)
	for t := 0; t < d.Points; t++ {
		for z := 0; z < d.Planes; z++ {
			if err := planePolygons(r.Plane(z, t), t, z, yOffset, xOffset, tolerance, polygons); err != nil {
				return nil, err
			}
		}
	}
	return polygons, nil
}

func planePolygons(orig raster.Plane, t, z, yOffset, xOffset int, tolerance float64, out map[ObjectKey]geom.Polygon) error {
	labels := orig.Labels()
	if len(labels) == 0 {
		return nil
	}

	// Work on a copy with the outermost pixel ring cleared, so that objects
	// touching the plane boundary present closed contours. An object that
	// consists only of boundary pixels vanishes here and is recreated from
	// a placeholder below.
	plane := orig.Clone()
	plane.ZeroBorder()
	boxes := plane.BoundingBoxes()

	for _, label := range labels {
		box, present := boxes[label]
		var shell []geom.Point
		var holes [][]geom.Point
		if present && !box.Empty() {
			crop := plane.Crop(box, 1)
			shell, holes = classifyContours(traceContours(crop, label))
		}

		switch {
		case shell == nil:
			// The object did not extend beyond the boundary ring. Place a
			// small square at its pixel centroid (taken from the original,
			// unzeroed plane) so the object count is preserved.
			cy, cx, ok := orig.Centroid(label)
			if !ok {
				return &raster.InputError{Z: z, T: t,
					Msg: fmt.Sprintf("label %d has no pixels", label)}
			}
			shell = placeholderSquare(float64(int(cx)), float64(int(cy)))
			holes = nil
			translate(shell, float64(xOffset), float64(yOffset))
		case len(shell) < 3:
			// Too few points to form a ring; same placeholder, centered on
			// the crop.
			shell = placeholderSquare(float64((box.MaxX-box.MinX+3)/2), float64((box.MaxY-box.MinY+3)/2))
			holes = nil
			translate(shell, float64(xOffset+box.MinX-1), float64(yOffset+box.MinY-1))
		default:
			// Shift from padded-crop coordinates back to plane coordinates,
			// then to the global frame.
			addY := float64(yOffset + box.MinY - 1)
			addX := float64(xOffset + box.MinX - 1)
			translate(shell, addX, addY)
			for _, h := range holes {
				translate(h, addX, addY)
			}
		}

		poly := geom.Polygon{shell}
		for _, h := range holes {
			poly = append(poly, h)
		}
		if tolerance > 0 {
			if simplified, ok := poly.Simplify(tolerance).(geom.Polygon); ok && acceptableSimplification(poly, simplified) {
				poly = simplified
			}
		}
		if !valid(poly) {
			// Simplification can introduce self-intersections; renode with
			// the self-union repair before giving up on the object.
			repaired, ok := repair(poly)
			if !ok || !valid(repaired) {
				return &RepairError{T: t, Z: z, Label: label}
			}
			poly = repaired
		}
		out[ObjectKey{T: t, Z: z, Label: label}] = poly
	}
	return nil
}

// classifyContours resolves the traced contour set into one shell and its
// holes. When several contours claim the shell role (possible when the
// border zeroing splits an object), the one with the most points wins and
// the others are discarded together with any holes they enclosed.
func classifyContours(contours []Contour) (shell []geom.Point, holes [][]geom.Point) {
	var candidates [][]geom.Point
	for _, c := range contours {
		switch c.Kind {
		case Shell:
			if shell == nil || len(c.Points) > len(shell) {
				shell = toRing(c.Points)
			}
		case Hole:
			candidates = append(candidates, toRing(c.Points))
		}
	}
	if shell == nil {
		return nil, nil
	}
	for _, h := range candidates {
		if len(h) > 0 && pointInRing(h[0], shell) {
			holes = append(holes, h)
		}
	}
	return shell, holes
}

// toRing converts traced pixel coordinates to a geometry ring.
func toRing(pts []image.Point) []geom.Point {
	ring := make([]geom.Point, len(pts))
	for i, p := range pts {
		ring[i] = geom.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return ring
}

// placeholderSquare is the degenerate stand-in for objects without a usable
// contour: a 2x2-pixel ring centered on (x, y).
func placeholderSquare(x, y float64) []geom.Point {
	return []geom.Point{
		{X: x - 1, Y: y - 1},
		{X: x + 1, Y: y - 1},
		{X: x + 1, Y: y + 1},
		{X: x - 1, Y: y + 1},
	}
}

// translate shifts ring coordinates into the global frame and inverts the
// y-axis (raster rows grow downward, the map convention is y-up).
func translate(ring []geom.Point, addX, addY float64) {
	for i := range ring {
		ring[i].X += addX
		ring[i].Y = -(ring[i].Y + addY)
	}
}

// netArea returns the unsigned area enclosed by the shell minus its holes.
func netArea(p geom.Polygon) float64 {
	if len(p) == 0 {
		return 0
	}
	a := math.Abs(ringArea(p[0]))
	for _, h := range p[1:] {
		a -= math.Abs(ringArea(h))
	}
	return a
}

// acceptableSimplification reports whether the simplified polygon still
// resembles the traced one: a shell of at least four points enclosing no
// less than half and no more than one and a half times the traced area.
// Unanchored vertex removal can collapse small objects into near-empty
// slivers; those keep their traced rings instead.
func acceptableSimplification(orig, simplified geom.Polygon) bool {
	if len(simplified) == 0 || len(simplified[0]) < 4 {
		return false
	}
	origArea := netArea(orig)
	if origArea <= 0 {
		return false
	}
	return math.Abs(netArea(simplified)-origArea) <= origArea/2
}

// SortedKeys returns the map's keys in ascending (t, z, label) order. All
// consumers that need a deterministic object order use this.
func SortedKeys(polygons map[ObjectKey]geom.Polygon) []ObjectKey {
	keys := make([]ObjectKey, 0, len(polygons))
	for k := range polygons {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.T != b.T {
			return a.T < b.T
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.Label < b.Label
	})
	return keys
}
