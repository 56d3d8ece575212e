package raster

import (
	"image"
	"image/color"
)

// PlaneFromImage converts a grayscale label mask image into a raster plane.
// Pixel values are taken verbatim as labels, so masks must be stored with
// integer intensities (16-bit grayscale holds up to 65535 objects per
// plane).
func PlaneFromImage(img image.Image) Plane {
	bounds := img.Bounds()
	p := Plane{
		Pix:    make([]Label, bounds.Dx()*bounds.Dy()),
		Height: bounds.Dy(),
		Width:  bounds.Dx(),
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			p.Set(y-bounds.Min.Y, x-bounds.Min.X, Label(g.Y))
		}
	}
	return p
}

// Image converts the plane into a 16-bit grayscale image with label values
// as intensities. Labels above 65535 are clipped.
func (p Plane) Image() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := p.At(y, x)
			if v < 0 {
				v = 0
			}
			if v > 0xffff {
				v = 0xffff
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	return img
}
