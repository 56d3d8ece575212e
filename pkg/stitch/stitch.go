// Package stitch orchestrates the conversion between per-tile labeled
// rasters and a single plate-wide vector map. Tiles are processed
// concurrently; each worker invocation operates on its own raster or polygon
// set, so no shared mutable state exists between tiles.
package stitch

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/stat"

	"tilevec/pkg/plate"
	"tilevec/pkg/raster"
	"tilevec/pkg/rasterize"
	"tilevec/pkg/vectorize"
)

// Params configures the stitcher.
type Params struct {
	// Workers is the number of tiles processed concurrently.
	Workers int

	// Tolerance is the polygon simplification tolerance in pixels.
	Tolerance float64
}

// DefaultParams returns parameters using all available CPU cores and the
// default simplification tolerance.
func DefaultParams() *Params {
	return &Params{
		Workers:   runtime.NumCPU(),
		Tolerance: vectorize.DefaultTolerance,
	}
}

// TileRaster pairs a tile with the labeled raster its segmentation produced.
type TileRaster struct {
	Tile   *plate.Tile
	Raster *raster.Raster
}

// TileObjectKey identifies one object within the plate-wide vector map.
type TileObjectKey struct {
	Tile   string
	Object vectorize.ObjectKey
}

// VectorMap is the seamless plate-wide vector representation of all
// segmented objects: one polygon with global coordinates per object.
// It is a derived, disposable artifact; the rasters remain authoritative
// until the map is persisted.
type VectorMap map[TileObjectKey]geom.Polygon

// SortedKeys returns the map's keys ordered by tile name, then ascending
// (t, z, label).
func (vm VectorMap) SortedKeys() []TileObjectKey {
	keys := make([]TileObjectKey, 0, len(vm))
	for k := range vm {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Tile != b.Tile {
			return a.Tile < b.Tile
		}
		if a.Object.T != b.Object.T {
			return a.Object.T < b.Object.T
		}
		if a.Object.Z != b.Object.Z {
			return a.Object.Z < b.Object.Z
		}
		return a.Object.Label < b.Object.Label
	})
	return keys
}

// Summary holds aggregate statistics over a polygonization run.
type Summary struct {
	// Tiles is the number of tiles processed.
	Tiles int

	// Objects is the total number of polygons in the vector map.
	Objects int

	// MeanVertices is the mean exterior-ring vertex count per object.
	MeanVertices float64

	// MeanArea is the mean polygon area in square pixels.
	MeanArea float64
}

// Stitcher converts between per-tile rasters and the plate-wide vector map.
type Stitcher struct {
	params *Params
}

// NewStitcher creates a stitcher with the given parameters.
func NewStitcher(params *Params) *Stitcher {
	if params == nil {
		params = DefaultParams()
	}
	p := *params
	if p.Workers < 1 {
		p.Workers = 1
	}
	return &Stitcher{params: &p}
}

// Polygonize converts the rasters of all tiles into one vector map. Tiles
// are processed concurrently by the configured number of workers. The first
// fatal error aborts the run; it carries the identity of the offending tile
// and, for geometry failures, the (t, z, label) tuple of the object.
func (s *Stitcher) Polygonize(tiles []TileRaster) (VectorMap, *Summary, error) {
	type result struct {
		idx      int
		polygons map[vectorize.ObjectKey]geom.Polygon
		err      error
	}

	jobs := make(chan int)
	results := make(chan result)

	for w := 0; w < s.params.Workers; w++ {
		go func() {
			for idx := range jobs {
				tr := tiles[idx]
				polygons, err := s.polygonizeTile(tr)
				results <- result{idx: idx, polygons: polygons, err: err}
			}
		}()
	}
	go func() {
		for idx := range tiles {
			jobs <- idx
		}
		close(jobs)
	}()

	vm := make(VectorMap)
	var firstErr error
	for range tiles {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		name := tiles[res.idx].Tile.Name
		for key, poly := range res.polygons {
			vm[TileObjectKey{Tile: name, Object: key}] = poly
		}
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return vm, s.summarize(vm, len(tiles)), nil
}

func (s *Stitcher) polygonizeTile(tr TileRaster) (map[vectorize.ObjectKey]geom.Polygon, error) {
	y, x, err := tr.Tile.AlignedOffset()
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", tr.Tile.Name, err)
	}
	polygons, err := vectorize.ToPolygons(tr.Raster, y, x, s.params.Tolerance)
	if err != nil {
		var repairErr *vectorize.RepairError
		if errors.As(err, &repairErr) {
			repairErr.Tile = tr.Tile.Name
			return nil, repairErr
		}
		return nil, fmt.Errorf("tile %s: %w", tr.Tile.Name, err)
	}
	return polygons, nil
}

// Rasterize reconstructs one labeled raster per tile from the vector map.
// Each tile's raster uses its aligned size and the plane counts found in the
// map; tiles without objects yield all-background rasters.
func (s *Stitcher) Rasterize(vm VectorMap, tiles []*plate.Tile) (map[string]*raster.Raster, error) {
	planes, points := 1, 1
	perTile := make(map[string]map[vectorize.ObjectKey]geom.Polygon)
	for key, poly := range vm {
		m, ok := perTile[key.Tile]
		if !ok {
			m = make(map[vectorize.ObjectKey]geom.Polygon)
			perTile[key.Tile] = m
		}
		m[key.Object] = poly
		if key.Object.Z+1 > planes {
			planes = key.Object.Z + 1
		}
		if key.Object.T+1 > points {
			points = key.Object.T + 1
		}
	}

	type result struct {
		idx int
		r   *raster.Raster
		err error
	}
	jobs := make(chan int)
	results := make(chan result)
	for w := 0; w < s.params.Workers; w++ {
		go func() {
			for idx := range jobs {
				tile := tiles[idx]
				y, x, err := tile.AlignedOffset()
				if err != nil {
					results <- result{idx: idx, err: fmt.Errorf("tile %s: %w", tile.Name, err)}
					continue
				}
				h, wid := tile.AlignedSize()
				dims := raster.Dims{Height: h, Width: wid, Planes: planes, Points: points}
				r := rasterize.FromPolygons(perTile[tile.Name], y, x, dims)
				results <- result{idx: idx, r: r}
			}
		}()
	}
	go func() {
		for idx := range tiles {
			jobs <- idx
		}
		close(jobs)
	}()

	out := make(map[string]*raster.Raster, len(tiles))
	var firstErr error
	for range tiles {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		out[tiles[res.idx].Name] = res.r
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (s *Stitcher) summarize(vm VectorMap, tiles int) *Summary {
	if len(vm) == 0 {
		return &Summary{Tiles: tiles}
	}
	vertices := make([]float64, 0, len(vm))
	areas := make([]float64, 0, len(vm))
	for _, poly := range vm {
		if len(poly) == 0 {
			continue
		}
		vertices = append(vertices, float64(len(poly[0])))
		// Ring orientation depends on the tracing direction; report magnitude.
		areas = append(areas, math.Abs(poly.Area()))
	}
	return &Summary{
		Tiles:        tiles,
		Objects:      len(vm),
		MeanVertices: stat.Mean(vertices, nil),
		MeanArea:     stat.Mean(areas, nil),
	}
}
