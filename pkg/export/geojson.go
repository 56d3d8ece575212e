// Package export persists plate-wide vector maps as GeoJSON feature
// collections and reads them back. Each segmented object becomes one Feature
// whose properties carry the (tile, t, z, label) identity needed to
// reconstruct per-tile rasters later.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/geom"

	"tilevec/pkg/stitch"
	"tilevec/pkg/vectorize"
)

// FeatureCollection is a GeoJSON FeatureCollection over segmented objects.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Feature is one segmented object: a polygon with optional holes in global
// map coordinates plus its identity properties.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry is a GeoJSON Polygon. Ring 0 is the exterior; further rings are
// holes. Rings are closed (first position repeated last) as the format
// requires.
type Geometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Properties identify the object within the plate.
type Properties struct {
	Tile      string `json:"tile"`
	TimePoint int    `json:"t"`
	ZPlane    int    `json:"z"`
	Label     int32  `json:"label"`
}

// NewFeatureCollection converts a vector map into a feature collection with
// features ordered by tile name, then ascending (t, z, label).
func NewFeatureCollection(vm stitch.VectorMap) *FeatureCollection {
	fc := &FeatureCollection{Type: "FeatureCollection"}
	for _, key := range vm.SortedKeys() {
		fc.Features = append(fc.Features, &Feature{
			Type:     "Feature",
			Geometry: toGeometry(vm[key]),
			Properties: Properties{
				Tile:      key.Tile,
				TimePoint: key.Object.T,
				ZPlane:    key.Object.Z,
				Label:     int32(key.Object.Label),
			},
		})
	}
	return fc
}

// VectorMap converts the feature collection back into a vector map.
func (fc *FeatureCollection) VectorMap() (stitch.VectorMap, error) {
	vm := make(stitch.VectorMap, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry.Type != "Polygon" {
			return nil, fmt.Errorf("export: feature %d: unsupported geometry type %q", i, f.Geometry.Type)
		}
		key := stitch.TileObjectKey{
			Tile: f.Properties.Tile,
			Object: vectorize.ObjectKey{
				T:     f.Properties.TimePoint,
				Z:     f.Properties.ZPlane,
				Label: f.Properties.Label,
			},
		}
		vm[key] = toPolygon(f.Geometry)
	}
	return vm, nil
}

// Write encodes the vector map as GeoJSON.
func Write(w io.Writer, vm stitch.VectorMap) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(NewFeatureCollection(vm)); err != nil {
		return fmt.Errorf("export: encoding vector map: %w", err)
	}
	return nil
}

// Read decodes a GeoJSON vector map.
func Read(r io.Reader) (stitch.VectorMap, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("export: decoding vector map: %w", err)
	}
	return fc.VectorMap()
}

// WriteFile writes the vector map to a GeoJSON file.
func WriteFile(path string, vm stitch.VectorMap) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	if err := Write(f, vm); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile reads a vector map from a GeoJSON file.
func ReadFile(path string) (stitch.VectorMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func toGeometry(poly geom.Polygon) Geometry {
	g := Geometry{Type: "Polygon"}
	for _, ring := range poly {
		coords := make([][2]float64, 0, len(ring)+1)
		for _, p := range ring {
			coords = append(coords, [2]float64{p.X, p.Y})
		}
		// Close the ring as GeoJSON requires.
		if len(ring) > 0 {
			coords = append(coords, [2]float64{ring[0].X, ring[0].Y})
		}
		g.Coordinates = append(g.Coordinates, coords)
	}
	return g
}

func toPolygon(g Geometry) geom.Polygon {
	poly := make(geom.Polygon, 0, len(g.Coordinates))
	for _, coords := range g.Coordinates {
		// Drop the closing position; rings are open internally.
		if len(coords) > 1 && coords[0] == coords[len(coords)-1] {
			coords = coords[:len(coords)-1]
		}
		ring := make([]geom.Point, len(coords))
		for i, c := range coords {
			ring[i] = geom.Point{X: c[0], Y: c[1]}
		}
		poly = append(poly, ring)
	}
	return poly
}
