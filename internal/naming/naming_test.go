package naming

import "testing"

// TestParseTileImage verifies metadata extraction from mask filenames
func TestParseTileImage(t *testing.T) {
	tests := []struct {
		path string
		want TileImage
	}{
		{"D03_r1_c2_t0_z3.tif", TileImage{Well: "D03", Row: 1, Col: 2, T: 0, Z: 3}},
		{"/data/masks/A01_r0_c0_t12_z0.png", TileImage{Well: "A01", Row: 0, Col: 0, T: 12, Z: 0}},
	}
	for _, tc := range tests {
		got, err := ParseTileImage(tc.path)
		if err != nil {
			t.Errorf("ParseTileImage(%q) failed: %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTileImage(%q) = %+v, want %+v", tc.path, got, tc.want)
		}
	}
}

// TestParseTileImageInvalid verifies rejection of malformed names
func TestParseTileImageInvalid(t *testing.T) {
	for _, path := range []string{
		"D03_r1_c2.tif",
		"image001.tif",
		"D03_r1_c2_tX_z0.tif",
		"d03_r1_c2_t0_z0.tif",
	} {
		if _, err := ParseTileImage(path); err == nil {
			t.Errorf("Expected ParseTileImage(%q) to fail", path)
		}
	}
}

// TestTileName verifies the canonical tile identifier
func TestTileName(t *testing.T) {
	ti := TileImage{Well: "D03", Row: 1, Col: 2, T: 5, Z: 1}
	if got := ti.TileName(); got != "D03_r1_c2" {
		t.Errorf("Expected tile name D03_r1_c2, got %q", got)
	}
}

// TestParseWell verifies the letter/digit well grid coordinates
func TestParseWell(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
	}{
		{"A01", 0, 0},
		{"D03", 3, 2},
		{"H12", 7, 11},
		{"AA01", 26, 0},
	}
	for _, tc := range tests {
		row, col, err := ParseWell(tc.name)
		if err != nil {
			t.Errorf("ParseWell(%q) failed: %v", tc.name, err)
			continue
		}
		if row != tc.row || col != tc.col {
			t.Errorf("ParseWell(%q) = (%d, %d), want (%d, %d)", tc.name, row, col, tc.row, tc.col)
		}
	}

	for _, name := range []string{"", "A", "01", "A00", "a01"} {
		if _, _, err := ParseWell(name); err == nil {
			t.Errorf("Expected ParseWell(%q) to fail", name)
		}
	}
}
