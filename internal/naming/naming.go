// Package naming parses the metadata encoded in mask filenames. Mask files
// follow the pattern <well>_r<row>_c<col>_t<time>_z<plane>.<ext>, e.g.
// "D03_r1_c2_t0_z0.tif": well name, tile grid position within the well, and
// the (t, z) plane the mask belongs to.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Well names are uppercase letters followed by a one-based column number,
// the same form ParseWell accepts.
var maskPattern = regexp.MustCompile(
	`^([A-Z]+[0-9]+)_r(\d+)_c(\d+)_t(\d+)_z(\d+)$`)

// TileImage is the metadata parsed from one mask filename.
type TileImage struct {
	// Well is the well name, e.g. "D03".
	Well string

	// Row and Col are the tile's grid position within the well.
	Row, Col int

	// T and Z are the time point and z-plane of the mask.
	T, Z int
}

// ParseTileImage extracts tile metadata from a mask file path.
func ParseTileImage(path string) (TileImage, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	m := maskPattern.FindStringSubmatch(stem)
	if m == nil {
		return TileImage{}, fmt.Errorf("naming: %q does not match <well>_r<row>_c<col>_t<time>_z<plane>", base)
	}
	row, _ := strconv.Atoi(m[2])
	col, _ := strconv.Atoi(m[3])
	t, _ := strconv.Atoi(m[4])
	z, _ := strconv.Atoi(m[5])
	return TileImage{Well: m[1], Row: row, Col: col, T: t, Z: z}, nil
}

// TileName is the canonical tile identifier used across the pipeline.
func (ti TileImage) TileName() string {
	return fmt.Sprintf("%s_r%d_c%d", ti.Well, ti.Row, ti.Col)
}

// ParseWell converts a well name like "D03" into zero-based (row, col) grid
// coordinates: the leading letters index the row, the trailing digits the
// one-based column.
func ParseWell(name string) (row, col int, err error) {
	i := 0
	for i < len(name) && name[i] >= 'A' && name[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("naming: invalid well name %q", name)
	}
	for j := 0; j < i; j++ {
		row = row*26 + int(name[j]-'A') + 1
	}
	row--
	c, err := strconv.Atoi(name[i:])
	if err != nil || c < 1 {
		return 0, 0, fmt.Errorf("naming: invalid well name %q", name)
	}
	return row, c - 1, nil
}
