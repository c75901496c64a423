package tile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Coords represents a tile coordinate in the Web Mercator tile system (z/x/y)
type Coords struct {
	Z uint32 // Zoom level
	X uint32 // X coordinate (column)
	Y uint32 // Y coordinate (row)
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}"
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the flat file name for this tile, e.g. z3_x1_y2@2x.png
func (c Coords) Path(suffix, extension string) string {
	return fmt.Sprintf("%s%s.%s", c.String(), suffix, extension)
}

// Tile returns the maptile.Tile for this coordinate
func (c Coords) Tile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Valid reports whether X and Y exist at zoom Z.
func (c Coords) Valid() bool {
	if c.Z > 30 {
		return false
	}
	n := uint64(1) << c.Z
	return uint64(c.X) < n && uint64(c.Y) < n
}

// Bounds returns the geographic bounding box for this tile in WGS84 (EPSG:4326)
// Returns [minLon, minLat, maxLon, maxLat]
func (c Coords) Bounds() [4]float64 {
	bound := c.Tile().Bound()

	return [4]float64{
		bound.Min.Lon(),
		bound.Min.Lat(),
		bound.Max.Lon(),
		bound.Max.Lat(),
	}
}

// Axes returns the noise-space coordinates of the tile's pixel centres,
// one slice per axis. The whole world at any zoom spans [0, scale) on both
// axes, so neighbouring tiles and zoom levels line up.
func (c Coords) Axes(size int, scale float64) (xs, ys []float64) {
	world := float64(size) * float64(uint64(1)<<c.Z)
	xs = make([]float64, size)
	ys = make([]float64, size)
	for i := 0; i < size; i++ {
		xs[i] = (float64(c.X)*float64(size) + float64(i) + 0.5) / world * scale
		ys[i] = (float64(c.Y)*float64(size) + float64(i) + 0.5) / world * scale
	}
	return xs, ys
}

// NewCoords creates a new Coords from zoom, x, y values
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// ParseCoords parses a tile string like "z13_x4297_y2754" into Coords
func ParseCoords(s string) (Coords, error) {
	var c Coords
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	if !c.Valid() {
		return c, fmt.Errorf("tile %s does not exist at zoom %d", c, c.Z)
	}
	return c, nil
}

// TilesInBBox returns all tile coordinates within a bounding box across a zoom range.
// bbox: [minLon, minLat, maxLon, maxLat] in WGS84
func TilesInBBox(bbox [4]float64, zoomMin, zoomMax int) []Coords {
	tiles := make([]Coords, 0, TileCount(bbox, zoomMin, zoomMax))

	for z := zoomMin; z <= zoomMax; z++ {
		minX, maxX, minY, maxY := tileSpan(bbox, maptile.Zoom(z))
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				tiles = append(tiles, NewCoords(uint32(z), x, y))
			}
		}
	}

	return tiles
}

// TileCount returns the number of tiles in a bounding box across a zoom range.
// This is useful for progress estimation without allocating the full tile list.
func TileCount(bbox [4]float64, zoomMin, zoomMax int) int {
	count := 0
	for z := zoomMin; z <= zoomMax; z++ {
		minX, maxX, minY, maxY := tileSpan(bbox, maptile.Zoom(z))
		count += int(maxX-minX+1) * int(maxY-minY+1)
	}
	return count
}

func tileSpan(bbox [4]float64, zoom maptile.Zoom) (minX, maxX, minY, maxY uint32) {
	minTile := maptile.At(orb.Point{bbox[0], bbox[1]}, zoom)
	maxTile := maptile.At(orb.Point{bbox[2], bbox[3]}, zoom)

	// Y grows southwards, so the corners come out swapped
	minX, maxX = minTile.X, maxTile.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY = minTile.Y, maxTile.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return minX, maxX, minY, maxY
}

// WorldBBox covers every tile at every zoom.
var WorldBBox = [4]float64{-180, -85.0511287, 179.9999999, 85.0511287}

// ParseBBox parses "minLon,minLat,maxLon,maxLat". The word "world" selects
// WorldBBox.
func ParseBBox(s string) ([4]float64, error) {
	if strings.EqualFold(strings.TrimSpace(s), "world") {
		return WorldBBox, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return [4]float64{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var bbox [4]float64
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return [4]float64{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		bbox[i] = val
	}

	if bbox[0] >= bbox[2] {
		return [4]float64{}, fmt.Errorf("minLon (%.4f) must be < maxLon (%.4f)", bbox[0], bbox[2])
	}
	if bbox[1] >= bbox[3] {
		return [4]float64{}, fmt.Errorf("minLat (%.4f) must be < maxLat (%.4f)", bbox[1], bbox[3])
	}
	return bbox, nil
}
