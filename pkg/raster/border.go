package raster

import (
	"gonum.org/v1/gonum/stat"
)

// BorderLabels returns every positive label value that appears in the first
// row, last row, first column, or last column of the plane, in ascending
// order. The result is restricted to labels actually present in the plane,
// which guards against edge values left behind by upstream filtering.
func (p Plane) BorderLabels() []Label {
	if p.Height == 0 || p.Width == 0 {
		return nil
	}
	edge := make(map[Label]struct{})
	for x := 0; x < p.Width; x++ {
		edge[p.At(0, x)] = struct{}{}
		edge[p.At(p.Height-1, x)] = struct{}{}
	}
	for y := 0; y < p.Height; y++ {
		edge[p.At(y, 0)] = struct{}{}
		edge[p.At(y, p.Width-1)] = struct{}{}
	}
	delete(edge, 0)

	var out []Label
	for _, v := range p.Labels() {
		if _, ok := edge[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// FindBorderObjects returns one flag per distinct label, aligned with the
// ascending label order of Labels: 1 if the object touches the plane
// boundary and 0 otherwise. An all-background plane yields an empty result.
func (p Plane) FindBorderObjects() []int {
	border := make(map[Label]struct{})
	for _, v := range p.BorderLabels() {
		border[v] = struct{}{}
	}
	labels := p.Labels()
	flags := make([]int, len(labels))
	for i, v := range labels {
		if _, ok := border[v]; ok {
			flags[i] = 1
		}
	}
	return flags
}

// Centroid returns the mean (y, x) position of the pixels equal to label,
// and false when the label has no pixels in the plane.
func (p Plane) Centroid(label Label) (y, x float64, ok bool) {
	var ys, xs []float64
	for r := 0; r < p.Height; r++ {
		for c := 0; c < p.Width; c++ {
			if p.At(r, c) == label {
				ys = append(ys, float64(r))
				xs = append(xs, float64(c))
			}
		}
	}
	if len(ys) == 0 {
		return 0, 0, false
	}
	return stat.Mean(ys, nil), stat.Mean(xs, nil), true
}
