package rasterize

import (
	"testing"

	"github.com/ctessum/geom"

	"tilevec/pkg/raster"
	"tilevec/pkg/vectorize"
)

// fillRect writes label into the inclusive pixel rectangle
func fillRect(p raster.Plane, y0, x0, y1, x1 int, label raster.Label) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p.Set(y, x, label)
		}
	}
}

// TestRoundTrip verifies that rectangular objects survive the polygon
// representation pixel for pixel
func TestRoundTrip(t *testing.T) {
	dims := raster.Dims{Height: 10, Width: 10}
	orig := raster.New(dims)
	p := orig.Plane(0, 0)
	fillRect(p, 2, 2, 5, 5, 1)
	fillRect(p, 7, 6, 8, 8, 2)

	polygons, err := vectorize.ToPolygons(orig, 50, 60, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	rebuilt := FromPolygons(polygons, 50, 60, dims)

	got := rebuilt.Plane(0, 0)
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			if got.At(y, x) != p.At(y, x) {
				t.Fatalf("Pixel (%d, %d): expected %d, got %d", y, x, p.At(y, x), got.At(y, x))
			}
		}
	}
}

// TestRoundTripDefaultTolerance verifies that a small square survives the
// round trip at the documented default simplification tolerance
func TestRoundTripDefaultTolerance(t *testing.T) {
	dims := raster.Dims{Height: 10, Width: 10}
	orig := raster.New(dims)
	p := orig.Plane(0, 0)
	fillRect(p, 2, 2, 5, 5, 1)

	polygons, err := vectorize.ToPolygons(orig, 0, 0, vectorize.DefaultTolerance)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	rebuilt := FromPolygons(polygons, 0, 0, dims)

	got := rebuilt.Plane(0, 0)
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			if got.At(y, x) != p.At(y, x) {
				t.Fatalf("Pixel (%d, %d): expected %d, got %d", y, x, p.At(y, x), got.At(y, x))
			}
		}
	}
}

// square returns a global-coordinate exterior ring covering the inclusive
// local pixel rectangle, with the stored y-axis inversion applied
func square(y0, x0, y1, x1 int) geom.Polygon {
	return geom.Polygon{{
		{X: float64(x0), Y: -float64(y0)},
		{X: float64(x1), Y: -float64(y0)},
		{X: float64(x1), Y: -float64(y1)},
		{X: float64(x0), Y: -float64(y1)},
	}}
}

// TestOverlapLastWriteWins verifies the documented precedence: when filled
// regions overlap, the higher-keyed object's label remains
func TestOverlapLastWriteWins(t *testing.T) {
	polygons := map[vectorize.ObjectKey]geom.Polygon{
		{T: 0, Z: 0, Label: 1}: square(1, 1, 3, 3),
		{T: 0, Z: 0, Label: 2}: square(2, 2, 4, 4),
	}
	out := FromPolygons(polygons, 0, 0, raster.Dims{Height: 6, Width: 6})
	p := out.Plane(0, 0)

	if p.At(1, 1) != 1 {
		t.Errorf("Expected label 1 outside the overlap, got %d", p.At(1, 1))
	}
	for y := 2; y <= 3; y++ {
		for x := 2; x <= 3; x++ {
			if p.At(y, x) != 2 {
				t.Errorf("Pixel (%d, %d): expected overlap label 2, got %d", y, x, p.At(y, x))
			}
		}
	}
	if p.At(4, 4) != 2 {
		t.Errorf("Expected label 2 at (4, 4), got %d", p.At(4, 4))
	}
	if p.At(0, 0) != 0 || p.At(5, 5) != 0 {
		t.Error("Expected background outside both objects")
	}
}

// TestOffsetsUndone verifies that the tile offset is subtracted before
// scan conversion
func TestOffsetsUndone(t *testing.T) {
	// Local pixels (2..3, 4..5) of a tile at global offset (y=20, x=30).
	poly := geom.Polygon{{
		{X: 34, Y: -22}, {X: 35, Y: -22}, {X: 35, Y: -23}, {X: 34, Y: -23},
	}}
	polygons := map[vectorize.ObjectKey]geom.Polygon{
		{T: 0, Z: 0, Label: 5}: poly,
	}
	out := FromPolygons(polygons, 20, 30, raster.Dims{Height: 6, Width: 6})
	p := out.Plane(0, 0)

	count := 0
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if p.At(y, x) == 5 {
				count++
				if y < 2 || y > 3 || x < 4 || x > 5 {
					t.Errorf("Unexpected labeled pixel at (%d, %d)", y, x)
				}
			}
		}
	}
	if count != 4 {
		t.Errorf("Expected 4 labeled pixels, got %d", count)
	}
}

// TestDegenerateAndOutOfRange verifies that unusable objects are skipped
// without disturbing the rest
func TestDegenerateAndOutOfRange(t *testing.T) {
	polygons := map[vectorize.ObjectKey]geom.Polygon{
		{T: 0, Z: 0, Label: 1}: square(1, 1, 2, 2),
		{T: 0, Z: 0, Label: 2}: {},                                    // no rings
		{T: 0, Z: 0, Label: 3}: {{{X: 0, Y: 0}, {X: 1, Y: 0}}},       // too few points
		{T: 0, Z: 5, Label: 4}: square(1, 1, 2, 2),                   // z out of range
		{T: 3, Z: 0, Label: 6}: square(1, 1, 2, 2),                   // t out of range
	}
	out := FromPolygons(polygons, 0, 0, raster.Dims{Height: 4, Width: 4})
	p := out.Plane(0, 0)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := raster.Label(0)
			if y >= 1 && y <= 2 && x >= 1 && x <= 2 {
				want = 1
			}
			if p.At(y, x) != want {
				t.Errorf("Pixel (%d, %d): expected %d, got %d", y, x, want, p.At(y, x))
			}
		}
	}
}

// TestPlainDims verifies that 2D dimensions without explicit plane counts
// still receive their objects in plane (0, 0)
func TestPlainDims(t *testing.T) {
	polygons := map[vectorize.ObjectKey]geom.Polygon{
		{T: 0, Z: 0, Label: 3}: square(1, 1, 2, 2),
	}
	out := FromPolygons(polygons, 0, 0, raster.Dims{Height: 4, Width: 4})

	d := out.Dims()
	if d.Planes != 1 || d.Points != 1 {
		t.Fatalf("Expected normalized 1x1 plane counts, got planes=%d points=%d", d.Planes, d.Points)
	}
	count := 0
	for _, v := range out.Plane(0, 0).Pix {
		if v == 3 {
			count++
		}
	}
	if count != 4 {
		t.Errorf("Expected 4 labeled pixels in plane (0,0), got %d", count)
	}
}

// TestSinglePixelObject verifies that a degenerate placeholder-sized ring
// still produces pixels through the inclusive boundary test
func TestSinglePixelObject(t *testing.T) {
	dims := raster.Dims{Height: 8, Width: 8}
	orig := raster.New(dims)
	orig.Plane(0, 0).Set(3, 4, 9)

	polygons, err := vectorize.ToPolygons(orig, 0, 0, 0)
	if err != nil {
		t.Fatalf("ToPolygons failed: %v", err)
	}
	rebuilt := FromPolygons(polygons, 0, 0, dims)
	if got := rebuilt.Plane(0, 0).At(3, 4); got != 9 {
		t.Errorf("Expected the single pixel to survive the round trip, got %d", got)
	}
}
