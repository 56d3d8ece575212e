package vectorize

import (
	"errors"
	"testing"

	"github.com/ctessum/geom"

	"tilevec/pkg/raster"
)

// fillRect writes label into the inclusive pixel rectangle
func fillRect(p raster.Plane, y0, x0, y1, x1 int, label raster.Label) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p.Set(y, x, label)
		}
	}
}

// ringBounds returns the bounding box of a ring
func ringBounds(ring []geom.Point) (minX, minY, maxX, maxY float64) {
	minX, minY = ring[0].X, ring[0].Y
	maxX, maxY = ring[0].X, ring[0].Y
	for _, p := range ring {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return
}

// TestSquareToPolygon verifies global coordinates for a simple square
// object: tile offset applied, y-axis inverted
func TestSquareToPolygon(t *testing.T) {
	r := raster.New(raster.Dims{Height: 10, Width: 10})
	fillRect(r.Plane(0, 0), 2, 2, 5, 5, 1)

	polygons, err := ToPolygons(r, 100, 200, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	if len(polygons) != 1 {
		t.Fatalf("Expected 1 polygon, got %d", len(polygons))
	}
	poly, ok := polygons[ObjectKey{T: 0, Z: 0, Label: 1}]
	if !ok {
		t.Fatal("Expected polygon under key (t=0, z=0, label=1)")
	}
	if len(poly) != 1 {
		t.Fatalf("Expected a single ring, got %d", len(poly))
	}

	// Pixel columns 2..5 shift to x = 202..205; pixel rows 2..5 invert to
	// y = -102..-105.
	minX, minY, maxX, maxY := ringBounds(poly[0])
	if minX != 202 || maxX != 205 {
		t.Errorf("Expected x range [202, 205], got [%g, %g]", minX, maxX)
	}
	if minY != -105 || maxY != -102 {
		t.Errorf("Expected y range [-105, -102], got [%g, %g]", minY, maxY)
	}
	if len(poly[0]) < 8 {
		t.Errorf("Expected the full traced perimeter, got %d points", len(poly[0]))
	}
}

// TestObjectCountPreserved verifies that every label yields a polygon, with
// border-only objects kept as placeholder squares
func TestObjectCountPreserved(t *testing.T) {
	r := raster.New(raster.Dims{Height: 8, Width: 8})
	p := r.Plane(0, 0)
	fillRect(p, 2, 2, 3, 3, 1)
	// Label 2 lives entirely in the outermost pixel ring and vanishes when
	// the border is zeroed.
	p.Set(0, 3, 2)
	p.Set(0, 4, 2)
	fillRect(p, 5, 5, 6, 6, 3)

	polygons, err := ToPolygons(r, 0, 0, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	if len(polygons) != 3 {
		t.Fatalf("Expected 3 polygons, got %d", len(polygons))
	}

	placeholder, ok := polygons[ObjectKey{T: 0, Z: 0, Label: 2}]
	if !ok {
		t.Fatal("Expected a polygon for the border-only object")
	}
	if len(placeholder) != 1 || len(placeholder[0]) != 4 {
		t.Fatalf("Expected a 4-point placeholder ring, got %v", placeholder)
	}
	// Centered on the truncated pixel centroid (row 0, columns 3 and 4).
	minX, minY, maxX, maxY := ringBounds(placeholder[0])
	if minX != 2 || maxX != 4 {
		t.Errorf("Expected placeholder x range [2, 4], got [%g, %g]", minX, maxX)
	}
	if minY != -1 || maxY != 1 {
		t.Errorf("Expected placeholder y range [-1, 1], got [%g, %g]", minY, maxY)
	}
	if !valid(placeholder) {
		t.Error("Expected the placeholder to be valid geometry")
	}
}

// TestDonutHole verifies that an enclosed background region becomes a hole
// ring of the object polygon
func TestDonutHole(t *testing.T) {
	r := raster.New(raster.Dims{Height: 9, Width: 9})
	p := r.Plane(0, 0)
	fillRect(p, 2, 2, 6, 6, 1)
	p.Set(4, 4, 0)

	polygons, err := ToPolygons(r, 0, 0, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	poly := polygons[ObjectKey{T: 0, Z: 0, Label: 1}]
	if len(poly) != 2 {
		t.Fatalf("Expected shell plus hole, got %d rings", len(poly))
	}
	// The hole pixel (4,4) inverts to (4,-4).
	if poly[1][0].X != 4 || poly[1][0].Y != -4 {
		t.Errorf("Expected hole at (4,-4), got %v", poly[1][0])
	}
}

// TestDiscardedComponentHoles verifies that when two components compete for
// the shell role, the loser's holes are dropped along with its shell
func TestDiscardedComponentHoles(t *testing.T) {
	r := raster.New(raster.Dims{Height: 10, Width: 12})
	p := r.Plane(0, 0)
	// A large solid block and, disconnected from it, a small donut carrying
	// a hole; both share the label.
	fillRect(p, 2, 2, 5, 6, 5)
	fillRect(p, 2, 8, 4, 10, 5)
	p.Set(3, 9, 0)

	polygons, err := ToPolygons(r, 0, 0, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	poly := polygons[ObjectKey{T: 0, Z: 0, Label: 5}]
	if len(poly) != 1 {
		t.Fatalf("Expected only the winning shell, got %d rings", len(poly))
	}
	minX, _, maxX, _ := ringBounds(poly[0])
	if minX != 2 || maxX != 6 {
		t.Errorf("Expected the larger block as shell (x range [2, 6]), got [%g, %g]", minX, maxX)
	}
}

// TestMultiPlaneKeys verifies that objects are keyed by their (t, z) plane
// and that SortedKeys orders them deterministically
func TestMultiPlaneKeys(t *testing.T) {
	r := raster.New(raster.Dims{Height: 6, Width: 6, Planes: 2, Points: 2})
	for tp := 0; tp < 2; tp++ {
		for z := 0; z < 2; z++ {
			fillRect(r.Plane(z, tp), 2, 2, 3, 3, raster.Label(z+1))
		}
	}

	polygons, err := ToPolygons(r, 0, 0, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	if len(polygons) != 4 {
		t.Fatalf("Expected 4 polygons, got %d", len(polygons))
	}
	want := []ObjectKey{
		{T: 0, Z: 0, Label: 1},
		{T: 0, Z: 1, Label: 2},
		{T: 1, Z: 0, Label: 1},
		{T: 1, Z: 1, Label: 2},
	}
	keys := SortedKeys(polygons)
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("Expected key %+v at index %d, got %+v", k, i, keys[i])
		}
	}
}

// TestSimplifyPreservesShape verifies that a positive tolerance never grows
// the ring and never materially changes the enclosed area
func TestSimplifyPreservesShape(t *testing.T) {
	r := raster.New(raster.Dims{Height: 10, Width: 10})
	fillRect(r.Plane(0, 0), 2, 2, 7, 7, 1)

	raw, err := ToPolygons(r, 0, 0, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	simplified, err := ToPolygons(r, 0, 0, DefaultTolerance)
	if err != nil {
		t.Fatalf("ToPolygons with tolerance failed: %v", err)
	}

	key := ObjectKey{T: 0, Z: 0, Label: 1}
	if len(simplified[key][0]) > len(raw[key][0]) {
		t.Errorf("Expected simplification not to add vertices: raw %d, simplified %d",
			len(raw[key][0]), len(simplified[key][0]))
	}
	if len(simplified[key][0]) < 4 {
		t.Errorf("Expected a usable ring after simplification, got %d points", len(simplified[key][0]))
	}
	rawArea := netArea(raw[key])
	simpArea := netArea(simplified[key])
	if simpArea < rawArea/2 || simpArea > rawArea*3/2 {
		t.Errorf("Expected area near %g after simplification, got %g", rawArea, simpArea)
	}
	if !valid(simplified[key]) {
		t.Error("Expected the simplified polygon to be valid")
	}
}

// TestSquareDefaultTolerance verifies that the default tolerance keeps a
// small square's corners: the polygon must still span its full pixel extent
func TestSquareDefaultTolerance(t *testing.T) {
	r := raster.New(raster.Dims{Height: 10, Width: 10})
	fillRect(r.Plane(0, 0), 2, 2, 5, 5, 1)

	polygons, err := ToPolygons(r, 100, 200, DefaultTolerance)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	poly := polygons[ObjectKey{T: 0, Z: 0, Label: 1}]
	if len(poly) == 0 || len(poly[0]) < 4 {
		t.Fatalf("Expected a usable ring, got %v", poly)
	}
	minX, minY, maxX, maxY := ringBounds(poly[0])
	if minX != 202 || maxX != 205 {
		t.Errorf("Expected x range [202, 205], got [%g, %g]", minX, maxX)
	}
	if minY != -105 || maxY != -102 {
		t.Errorf("Expected y range [-105, -102], got [%g, %g]", minY, maxY)
	}
	if got := netArea(poly); got < 4.5 || got > 13.5 {
		t.Errorf("Expected the 3x3 center-line area 9 within half, got %g", got)
	}
}

// TestNegativePixelRejected verifies the producer-contract check
func TestNegativePixelRejected(t *testing.T) {
	r := raster.New(raster.Dims{Height: 4, Width: 4})
	r.Plane(0, 0).Set(1, 1, -2)

	_, err := ToPolygons(r, 0, 0, 0)
	var inputErr *raster.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("Expected InputError for negative pixel, got %v", err)
	}
}
