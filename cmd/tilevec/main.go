package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/tiff"

	_ "image/png"

	"tilevec/internal/naming"
	"tilevec/pkg/config"
	"tilevec/pkg/export"
	"tilevec/pkg/plate"
	"tilevec/pkg/preview"
	"tilevec/pkg/raster"
	"tilevec/pkg/stitch"
)

func main() {
	// Parse command line arguments
	mode := flag.String("mode", "polygonize", "Operation mode: polygonize or rasterize")
	inputDir := flag.String("input", "", "Directory containing per-tile label mask images (polygonize mode)")
	vectorsPath := flag.String("vectors", "", "GeoJSON vector map to rasterize (rasterize mode)")
	outputPath := flag.String("output", "vectormap.geojson", "Output file (polygonize) or directory (rasterize)")
	configPath := flag.String("config", "tilevec.yaml", "Path to the YAML configuration file")
	previewDir := flag.String("preview-dir", "", "Optional directory for plane preview images")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Output.Verbose {
		fmt.Println("================================")
		fmt.Println("TILEVEC - seamless vector maps from tiled segmentations")
		fmt.Println("================================")
	}

	startTime := time.Now()
	switch *mode {
	case "polygonize":
		if *inputDir == "" {
			flag.Usage()
			os.Exit(1)
		}
		if err := runPolygonize(cfg, *inputDir, *outputPath, *previewDir); err != nil {
			log.Fatalf("Polygonization failed: %v", err)
		}
	case "rasterize":
		if *vectorsPath == "" {
			flag.Usage()
			os.Exit(1)
		}
		if err := runRasterize(cfg, *vectorsPath, *outputPath); err != nil {
			log.Fatalf("Rasterization failed: %v", err)
		}
	default:
		log.Fatalf("Unknown mode %q (must be polygonize or rasterize)", *mode)
	}

	if cfg.Output.Verbose {
		fmt.Printf("\nCompleted in %.2f seconds\n", time.Since(startTime).Seconds())
	}
}

// runPolygonize loads all mask images, assembles one raster per tile, and
// writes the combined vector map as GeoJSON.
func runPolygonize(cfg *config.Config, inputDir, outputPath, previewDir string) error {
	tiles, err := loadTiles(cfg, inputDir)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d tiles from %s\n", len(tiles), inputDir)

	params := &stitch.Params{
		Workers:   cfg.Processing.Workers,
		Tolerance: cfg.Processing.Tolerance,
	}
	stitcher := stitch.NewStitcher(params)

	fmt.Printf("Polygonizing with %d workers...\n", params.Workers)
	vm, summary, err := stitcher.Polygonize(tiles)
	if err != nil {
		return err
	}

	fmt.Printf("\nVector map statistics:\n")
	fmt.Printf("======================\n")
	fmt.Printf("Tiles:            %d\n", summary.Tiles)
	fmt.Printf("Objects:          %d\n", summary.Objects)
	fmt.Printf("Mean vertices:    %.1f\n", summary.MeanVertices)
	fmt.Printf("Mean area (px^2): %.1f\n", summary.MeanArea)

	if err := export.WriteFile(outputPath, vm); err != nil {
		return err
	}
	fmt.Printf("Vector map saved to: %s\n", outputPath)

	if previewDir != "" {
		fmt.Printf("Saving input plane previews to: %s\n", previewDir)
		for _, tr := range tiles {
			if err := preview.NewRenderer(tr.Raster).SavePlaneSequence(previewDir, tr.Tile.Name); err != nil {
				log.Printf("Warning: failed to save preview for tile %s: %v", tr.Tile.Name, err)
			}
		}
	}
	return nil
}

// runRasterize reads a GeoJSON vector map and reconstructs one label mask
// per tile and plane into the output directory.
func runRasterize(cfg *config.Config, vectorsPath, outputDir string) error {
	vm, err := export.ReadFile(vectorsPath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded vector map with %d objects from %s\n", len(vm), vectorsPath)

	p := cfg.NewPlate()
	align := cfg.Alignment()
	wells := make(map[string]*plate.Well)
	var tiles []*plate.Tile
	seen := make(map[string]bool)
	for _, key := range vm.SortedKeys() {
		if seen[key.Tile] {
			continue
		}
		seen[key.Tile] = true
		ti, err := naming.ParseTileImage(key.Tile + "_t0_z0.tif")
		if err != nil {
			return fmt.Errorf("vector map tile %q: %w", key.Tile, err)
		}
		well, err := lookupWell(p, wells, ti.Well)
		if err != nil {
			return err
		}
		tiles = append(tiles, &plate.Tile{
			Well:   well,
			Name:   key.Tile,
			Row:    ti.Row,
			Col:    ti.Col,
			Height: cfg.Tile.Height,
			Width:  cfg.Tile.Width,
			Align:  align,
		})
	}

	stitcher := stitch.NewStitcher(&stitch.Params{
		Workers:   cfg.Processing.Workers,
		Tolerance: cfg.Processing.Tolerance,
	})
	rasters, err := stitcher.Rasterize(vm, tiles)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	names := make([]string, 0, len(rasters))
	for name := range rasters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := preview.NewRenderer(rasters[name]).SavePlaneSequence(outputDir, name); err != nil {
			return err
		}
	}
	fmt.Printf("Reconstructed masks for %d tiles saved to: %s\n", len(rasters), outputDir)
	return nil
}

// loadTiles reads every mask image in dir and assembles one TileRaster per
// tile, with planes placed by the (t, z) indexes parsed from filenames.
func loadTiles(cfg *config.Config, dir string) ([]stitch.TileRaster, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type planeKey struct{ t, z int }
	planes := make(map[string]map[planeKey]raster.Plane)
	meta := make(map[string]naming.TileImage)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".tif" && ext != ".tiff" && ext != ".png" {
			continue
		}
		ti, err := naming.ParseTileImage(entry.Name())
		if err != nil {
			return nil, err
		}
		img, err := loadImage(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load mask %s: %w", entry.Name(), err)
		}
		name := ti.TileName()
		if planes[name] == nil {
			planes[name] = make(map[planeKey]raster.Plane)
			meta[name] = ti
		}
		planes[name][planeKey{t: ti.T, z: ti.Z}] = raster.PlaneFromImage(img)
	}
	if len(planes) == 0 {
		return nil, fmt.Errorf("no mask images found in %s", dir)
	}

	p := cfg.NewPlate()
	align := cfg.Alignment()
	wells := make(map[string]*plate.Well)

	names := make([]string, 0, len(planes))
	for name := range planes {
		names = append(names, name)
	}
	sort.Strings(names)

	var tiles []stitch.TileRaster
	for _, name := range names {
		ti := meta[name]
		well, err := lookupWell(p, wells, ti.Well)
		if err != nil {
			return nil, err
		}

		// Raster dimensions come from the images; tile dimensions from the
		// acquisition configuration.
		maxT, maxZ := 0, 0
		var h, w int
		for key, pl := range planes[name] {
			if key.t > maxT {
				maxT = key.t
			}
			if key.z > maxZ {
				maxZ = key.z
			}
			h, w = pl.Height, pl.Width
		}
		r := raster.New(raster.Dims{Height: h, Width: w, Planes: maxZ + 1, Points: maxT + 1})
		for key, pl := range planes[name] {
			if pl.Height != h || pl.Width != w {
				return nil, fmt.Errorf("tile %s: inconsistent plane dimensions", name)
			}
			copy(r.Plane(key.z, key.t).Pix, pl.Pix)
		}

		tiles = append(tiles, stitch.TileRaster{
			Tile: &plate.Tile{
				Well:   well,
				Name:   name,
				Row:    ti.Row,
				Col:    ti.Col,
				Height: cfg.Tile.Height,
				Width:  cfg.Tile.Width,
				Align:  align,
			},
			Raster: r,
		})
	}
	return tiles, nil
}

func lookupWell(p *plate.Plate, wells map[string]*plate.Well, name string) (*plate.Well, error) {
	if well, ok := wells[name]; ok {
		return well, nil
	}
	row, col, err := naming.ParseWell(name)
	if err != nil {
		return nil, err
	}
	well := &plate.Well{Plate: p, Name: name, Row: row, Col: col}
	wells[name] = well
	return well, nil
}

// loadImage loads a mask image from a file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".tif" || ext == ".tiff" {
		return tiff.Decode(file)
	}
	img, _, err := image.Decode(file)
	return img, err
}
