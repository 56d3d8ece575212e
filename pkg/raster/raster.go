// Package raster provides the labeled raster representation used throughout
// the pipeline. A labeled raster is a 2D integer array, optionally extended
// with z-plane and time-point axes, in which the value 0 denotes background
// and each positive integer uniquely identifies one connected segmented
// object within a single (z, t) plane.
package raster

import (
	"fmt"
	"sort"
)

// Label identifies one segmented object within a single raster plane.
// Labels are positive; they need not be dense or sorted.
type Label = int32

// InputError indicates that a raster violates the segmentation producer
// contract (e.g. negative values). It is fatal for the affected tile/plane;
// other tiles and planes are unaffected.
type InputError struct {
	Z, T int
	Msg  string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("raster: plane (z=%d, t=%d): %s", e.Z, e.T, e.Msg)
}

// Dims describes the shape of a labeled raster.
type Dims struct {
	Height int
	Width  int
	// Planes is the number of z-planes, Points the number of time points.
	// Both are 1 for a plain 2D raster.
	Planes int
	Points int
}

// Raster is a labeled raster with dimensions Dims. Pixels are stored
// contiguously per plane so that each (z, t) plane is a dense row-major
// sub-slice.
type Raster struct {
	dims Dims
	pix  []Label
}

// New returns an all-background raster of the given dimensions.
func New(d Dims) *Raster {
	if d.Planes < 1 {
		d.Planes = 1
	}
	if d.Points < 1 {
		d.Points = 1
	}
	return &Raster{
		dims: d,
		pix:  make([]Label, d.Height*d.Width*d.Planes*d.Points),
	}
}

// NewPlane returns a single-plane raster wrapping the given row-major pixel
// data. The slice is used directly, not copied; it must have height*width
// elements.
func NewPlane(pix []Label, height, width int) (*Raster, error) {
	if len(pix) != height*width {
		return nil, fmt.Errorf("raster: have %d pixels, want %d", len(pix), height*width)
	}
	return &Raster{
		dims: Dims{Height: height, Width: width, Planes: 1, Points: 1},
		pix:  pix,
	}, nil
}

// Dims returns the raster's dimensions.
func (r *Raster) Dims() Dims { return r.dims }

// Plane returns a view of the 2D plane at z-index z and time point t.
// The view shares the raster's storage.
func (r *Raster) Plane(z, t int) Plane {
	n := r.dims.Height * r.dims.Width
	start := (t*r.dims.Planes + z) * n
	return Plane{
		Pix:    r.pix[start : start+n],
		Height: r.dims.Height,
		Width:  r.dims.Width,
	}
}

// Validate checks the segmentation producer contract: every pixel value
// must be non-negative.
func (r *Raster) Validate() error {
	for t := 0; t < r.dims.Points; t++ {
		for z := 0; z < r.dims.Planes; z++ {
			p := r.Plane(z, t)
			for _, v := range p.Pix {
				if v < 0 {
					return &InputError{Z: z, T: t, Msg: fmt.Sprintf("negative pixel value %d", v)}
				}
			}
		}
	}
	return nil
}

// Plane is a single 2D slice of a raster at a fixed z-index and time point.
// Pix is row-major and shared with the owning raster.
type Plane struct {
	Pix    []Label
	Height int
	Width  int
}

// At returns the pixel value at row y, column x.
func (p Plane) At(y, x int) Label { return p.Pix[y*p.Width+x] }

// Set writes the pixel value at row y, column x.
func (p Plane) Set(y, x int, v Label) { p.Pix[y*p.Width+x] = v }

// Clone returns a deep copy of the plane.
func (p Plane) Clone() Plane {
	pix := make([]Label, len(p.Pix))
	copy(pix, p.Pix)
	return Plane{Pix: pix, Height: p.Height, Width: p.Width}
}

// Labels returns the distinct positive label values present in the plane in
// ascending order.
func (p Plane) Labels() []Label {
	seen := make(map[Label]struct{})
	for _, v := range p.Pix {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	labels := make([]Label, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Bounds is the inclusive bounding box of a label's pixels within a plane.
type Bounds struct {
	MinY, MinX, MaxY, MaxX int
}

// Empty reports whether the bounds contain no pixels.
func (b Bounds) Empty() bool { return b.MaxY < b.MinY || b.MaxX < b.MinX }

// BoundingBoxes returns the inclusive bounding box of every positive label
// present in the plane.
func (p Plane) BoundingBoxes() map[Label]Bounds {
	boxes := make(map[Label]Bounds)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := p.At(y, x)
			if v <= 0 {
				continue
			}
			b, ok := boxes[v]
			if !ok {
				boxes[v] = Bounds{MinY: y, MinX: x, MaxY: y, MaxX: x}
				continue
			}
			if y < b.MinY {
				b.MinY = y
			}
			if y > b.MaxY {
				b.MaxY = y
			}
			if x < b.MinX {
				b.MinX = x
			}
			if x > b.MaxX {
				b.MaxX = x
			}
			boxes[v] = b
		}
	}
	return boxes
}

// ZeroBorder sets the outermost ring of pixels to background, in place.
// Downstream contour tracing relies on this to obtain closed contours for
// objects touching the plane boundary; objects consisting only of boundary
// pixels disappear and are later recreated from a degenerate placeholder.
func (p Plane) ZeroBorder() {
	if p.Height == 0 || p.Width == 0 {
		return
	}
	for x := 0; x < p.Width; x++ {
		p.Set(0, x, 0)
		p.Set(p.Height-1, x, 0)
	}
	for y := 0; y < p.Height; y++ {
		p.Set(y, 0, 0)
		p.Set(y, p.Width-1, 0)
	}
}

// Crop extracts the sub-plane covered by b expanded by pad background pixels
// on every side. The result owns its pixels.
func (p Plane) Crop(b Bounds, pad int) Plane {
	h := b.MaxY - b.MinY + 1 + 2*pad
	w := b.MaxX - b.MinX + 1 + 2*pad
	out := Plane{Pix: make([]Label, h*w), Height: h, Width: w}
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			out.Set(y-b.MinY+pad, x-b.MinX+pad, p.At(y, x))
		}
	}
	return out
}
