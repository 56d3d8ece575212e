// Package preview renders labeled rasters to grayscale images for visual
// inspection of segmentations and reconstructed tiles.
package preview

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"tilevec/pkg/raster"
)

// Renderer turns the planes of a labeled raster into viewable images.
type Renderer struct {
	raster *raster.Raster
}

// NewRenderer creates a renderer for the given raster.
func NewRenderer(r *raster.Raster) *Renderer {
	return &Renderer{raster: r}
}

// PlaneImage renders the plane at z-index z and time point t as a 16-bit
// grayscale image with raw label values as intensities.
func (v *Renderer) PlaneImage(z, t int) (image.Image, error) {
	d := v.raster.Dims()
	if z < 0 || z >= d.Planes {
		return nil, fmt.Errorf("preview: z-index %d out of range [0, %d)", z, d.Planes)
	}
	if t < 0 || t >= d.Points {
		return nil, fmt.Errorf("preview: time point %d out of range [0, %d)", t, d.Points)
	}
	return v.raster.Plane(z, t).Image(), nil
}

// SavePlane renders one plane and writes it as a TIFF file.
func (v *Renderer) SavePlane(z, t int, filename string) error {
	img, err := v.PlaneImage(z, t)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("preview: encoding %s: %w", filename, err)
	}
	return nil
}

// SavePlaneSequence renders every (t, z) plane of the raster into outputDir,
// one TIFF per plane.
func (v *Renderer) SavePlaneSequence(outputDir, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	d := v.raster.Dims()
	for t := 0; t < d.Points; t++ {
		for z := 0; z < d.Planes; z++ {
			filename := filepath.Join(outputDir, fmt.Sprintf("%s_t%03d_z%03d.tif", prefix, t, z))
			if err := v.SavePlane(z, t, filename); err != nil {
				return err
			}
		}
	}
	return nil
}
