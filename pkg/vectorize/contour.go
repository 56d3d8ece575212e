package vectorize

import (
	"image"

	"tilevec/pkg/raster"
)

// ContourKind tags a traced contour by its role in the two-level topology of
// a segmented object: the outer boundary of a foreground component, or the
// boundary of an enclosed background region.
type ContourKind int

const (
	// Shell is the outer boundary of a foreground component.
	Shell ContourKind = iota
	// Hole is the boundary of a background region enclosed by foreground.
	Hole
)

// Contour is an ordered ring of boundary pixel coordinates within a cropped
// mask, together with its topological role.
type Contour struct {
	Kind   ContourKind
	Points []image.Point
}

// Neighbor offsets in clockwise order (image convention, y grows downward):
// W, NW, N, NE, E, SE, S, SW.
var (
	nbrY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}
	nbrX = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}
)

// traceContours finds all contours of the pixels equal to label within the
// crop, classified into shells and holes. Foreground components use
// 8-connectivity, enclosed background regions 4-connectivity, matching the
// usual raster topology convention. The crop is expected to carry a
// background margin on all sides so that every contour closes.
func traceContours(crop raster.Plane, label raster.Label) []Contour {
	h, w := crop.Height, crop.Width
	if h == 0 || w == 0 {
		return nil
	}
	fg := func(y, x int) bool {
		return y >= 0 && y < h && x >= 0 && x < w && crop.At(y, x) == label
	}

	// comp[i] = 0 unvisited, >0 foreground component id, <0 background
	// component id.
	comp := make([]int, h*w)
	var contours []Contour

	nextFG := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !fg(y, x) || comp[y*w+x] != 0 {
				continue
			}
			nextFG++
			floodFill(comp, h, w, y, x, nextFG, func(yy, xx int) bool { return fg(yy, xx) }, true)
			inComp := func(yy, xx int) bool {
				return yy >= 0 && yy < h && xx >= 0 && xx < w && comp[yy*w+xx] == nextFG
			}
			contours = append(contours, Contour{
				Kind:   Shell,
				Points: traceBoundary(inComp, y, x, h*w),
			})
		}
	}

	// Background components that never touch the crop edge are holes.
	nextBG := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if fg(y, x) || comp[y*w+x] != 0 {
				continue
			}
			nextBG++
			id := -nextBG
			touchesEdge := floodFill(comp, h, w, y, x, id, func(yy, xx int) bool { return !fg(yy, xx) }, false)
			if touchesEdge {
				continue
			}
			inComp := func(yy, xx int) bool {
				return yy >= 0 && yy < h && xx >= 0 && xx < w && comp[yy*w+xx] == id
			}
			contours = append(contours, Contour{
				Kind:   Hole,
				Points: traceBoundary(inComp, y, x, h*w),
			})
		}
	}
	return contours
}

// floodFill marks the connected component containing (sy, sx) with id and
// reports whether it touches the plane edge. Foreground components use
// 8-connectivity (diag true), background components 4-connectivity.
func floodFill(comp []int, h, w, sy, sx, id int, member func(y, x int) bool, diag bool) (touchesEdge bool) {
	stack := []image.Point{{X: sx, Y: sy}}
	comp[sy*w+sx] = id
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.Y == 0 || p.Y == h-1 || p.X == 0 || p.X == w-1 {
			touchesEdge = true
		}
		for d := 0; d < 8; d++ {
			if !diag && d%2 == 1 {
				continue
			}
			yy, xx := p.Y+nbrY[d], p.X+nbrX[d]
			if yy < 0 || yy >= h || xx < 0 || xx >= w {
				continue
			}
			if comp[yy*w+xx] != 0 || !member(yy, xx) {
				continue
			}
			comp[yy*w+xx] = id
			stack = append(stack, image.Point{X: xx, Y: yy})
		}
	}
	return touchesEdge
}

// traceBoundary walks the boundary of a connected component with
// Moore-neighbor tracing, starting at its topmost-leftmost pixel (sy, sx).
// The returned ring is open (the start point is not repeated) and ordered
// clockwise in image convention. Termination follows Jacob's criterion: the
// walk stops when the start pixel is re-entered from its original backtrack
// direction.
func traceBoundary(member func(y, x int) bool, sy, sx, maxSteps int) []image.Point {
	contour := []image.Point{{X: sx, Y: sy}}
	cy, cx := sy, sx
	// The start pixel is topmost-leftmost, so its west neighbor is outside
	// the component; begin the clockwise scan there.
	bDir := 0
	for steps := 0; steps < 4*maxSteps+8; steps++ {
		found := -1
		for i := 1; i <= 8; i++ {
			d := (bDir + i) % 8
			if member(cy+nbrY[d], cx+nbrX[d]) {
				found = d
				break
			}
		}
		if found < 0 {
			// Isolated single pixel.
			return contour
		}
		ny, nx := cy+nbrY[found], cx+nbrX[found]
		// The backtrack for the next step is the background neighbor
		// examined immediately before the hit; re-express its direction
		// relative to the new pixel.
		prev := (found + 7) % 8
		by, bx := cy+nbrY[prev], cx+nbrX[prev]
		bDir = directionOf(ny, nx, by, bx)
		cy, cx = ny, nx
		if cy == sy && cx == sx && bDir == 0 {
			return contour
		}
		contour = append(contour, image.Point{X: cx, Y: cy})
	}
	return contour
}

// directionOf returns the neighbor-table index of (ty, tx) as seen from
// (fy, fx). The two pixels are always 8-adjacent here.
func directionOf(fy, fx, ty, tx int) int {
	for d := 0; d < 8; d++ {
		if fy+nbrY[d] == ty && fx+nbrX[d] == tx {
			return d
		}
	}
	return 0
}
