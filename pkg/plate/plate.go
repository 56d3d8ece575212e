// Package plate models the spatial hierarchy of a tiled microscopy
// acquisition: a Plate contains Wells laid out on a grid, and each Well
// contains Tiles (one rectangular field of view each). The package computes
// the position of any tile within the global pixel coordinate space of the
// stitched specimen overview, including the alignment cropping applied when
// the same physical location was imaged in multiple acquisition cycles.
package plate

import (
	"fmt"
)

// ConfigurationError indicates that the tile/well/plate ancestry required for
// offset computation is incomplete. Geometry cannot be computed without a
// complete hierarchy, so callers must treat this as fatal rather than retry.
type ConfigurationError struct {
	// Subject identifies the element whose ancestry is broken.
	Subject string
	// Missing names the absent ancestor reference.
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("plate: %s has no %s reference", e.Subject, e.Missing)
}

// Plate is the top-level container. Its offset within the experiment
// overview and the pixel dimensions of its wells are supplied by the
// metadata provider; both must be non-negative.
type Plate struct {
	// Name identifies the plate within the experiment.
	Name string

	// YOffset and XOffset are the top-left pixel coordinates of the plate
	// within the experiment overview.
	YOffset int
	XOffset int

	// WellHeight and WellWidth are the pixel dimensions of a single well,
	// including any inter-well spacing baked in by the metadata provider.
	WellHeight int
	WellWidth  int

	// VerticalDisplacement and HorizontalDisplacement are per-row and
	// per-column corrections for systematic stage drift between site
	// acquisitions, in pixels.
	VerticalDisplacement   int
	HorizontalDisplacement int
}

// Well is a container of tiles at a discrete (Row, Col) position within its
// parent plate. It holds a non-owning reference to the plate.
type Well struct {
	Plate *Plate

	// Name identifies the well within the plate, e.g. "D03".
	Name string

	// Row and Col are the well's grid position within the plate.
	Row int
	Col int
}

// Offset returns the top-left pixel coordinate (y, x) of the well within the
// global frame: its position within the plate plus the plate's own offset.
func (w *Well) Offset() (y, x int, err error) {
	if w.Plate == nil {
		return 0, 0, &ConfigurationError{Subject: "well " + w.Name, Missing: "plate"}
	}
	y = w.Row*w.Plate.WellHeight + w.Plate.YOffset
	x = w.Col*w.Plate.WellWidth + w.Plate.XOffset
	return y, x, nil
}

// Alignment holds the pixel margins that must be cropped from a tile to
// align it with the same physical location imaged in a different acquisition
// cycle. All overhangs are non-negative.
type Alignment struct {
	UpperOverhang int
	LowerOverhang int
	LeftOverhang  int
	RightOverhang int
}

// Tile is one rectangular field of view acquired by the microscope. It owns
// the labeled raster produced by segmentation (held by the caller alongside
// the tile) and a non-owning reference to its parent well.
type Tile struct {
	Well *Well

	// Name identifies the tile, e.g. "D03_s5".
	Name string

	// Row and Col are the tile's grid position within the well.
	Row int
	Col int

	// Height and Width are the intrinsic pixel dimensions of the tile.
	Height int
	Width  int

	// Align is the cross-cycle alignment metadata, or nil when the tile was
	// acquired in a single cycle.
	Align *Alignment
}

// Offset returns the top-left pixel coordinate (y, x) of the tile in the
// global frame. It is the sum of the tile's grid position times its pixel
// size, the grid position times the configured per-row/per-column
// displacement correction, and the offset of the parent well.
func (t *Tile) Offset() (y, x int, err error) {
	if t.Well == nil {
		return 0, 0, &ConfigurationError{Subject: "tile " + t.Name, Missing: "well"}
	}
	wy, wx, err := t.Well.Offset()
	if err != nil {
		return 0, 0, err
	}
	p := t.Well.Plate
	y = t.Row*t.Height + t.Row*p.VerticalDisplacement + wy
	x = t.Col*t.Width + t.Col*p.HorizontalDisplacement + wx
	return y, x, nil
}

// AlignedSize returns the tile's pixel dimensions after cross-cycle
// alignment cropping. Without alignment metadata the raw size is returned
// unchanged.
func (t *Tile) AlignedSize() (height, width int) {
	if t.Align == nil {
		return t.Height, t.Width
	}
	return t.Height - (t.Align.UpperOverhang + t.Align.LowerOverhang),
		t.Width - (t.Align.LeftOverhang + t.Align.RightOverhang)
}

// AlignedOffset returns the tile's global offset shifted by the alignment
// crop. Without alignment metadata it equals Offset.
func (t *Tile) AlignedOffset() (y, x int, err error) {
	y, x, err = t.Offset()
	if err != nil {
		return 0, 0, err
	}
	if t.Align == nil {
		return y, x, nil
	}
	return y + t.Align.LowerOverhang, x + t.Align.RightOverhang, nil
}
