// Package mbtiles stores rendered noise tiles in MBTiles (SQLite) databases.
package mbtiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTileNotFound is returned by Reader.ReadTile for a missing tile.
var ErrTileNotFound = errors.New("mbtiles: tile not found")

// NoiseParams records how the tiles of a tileset were generated. It is
// stored as JSON under the "json" metadata key.
type NoiseParams struct {
	Kind        string     `json:"kind"`
	Dims        int        `json:"dims"`
	Seed        int64      `json:"seed"`
	Octaves     int        `json:"octaves"`
	Persistence float64    `json:"persistence"`
	Lacunarity  float64    `json:"lacunarity"`
	Range       [2]float64 `json:"range"`
	TileSize    int        `json:"tile_size"`
	Scale       float64    `json:"scale"`
}

// Metadata contains MBTiles metadata fields.
type Metadata struct {
	Noise       *NoiseParams
	Name        string
	Format      string // png
	Description string
	Type        string // "baselayer" or "overlay"
	Version     string
	Bounds      [4]float64
	MinZoom     int
	MaxZoom     int
}

// ToMap converts Metadata to name/value rows.
func (m Metadata) ToMap() (map[string]string, error) {
	result := map[string]string{
		"minzoom": strconv.Itoa(m.MinZoom),
		"maxzoom": strconv.Itoa(m.MaxZoom),
	}
	set := func(key, value string) {
		if value != "" {
			result[key] = value
		}
	}
	set("name", m.Name)
	set("format", m.Format)
	set("description", m.Description)
	set("type", m.Type)
	set("version", m.Version)

	if m.Bounds != [4]float64{} {
		result["bounds"] = fmt.Sprintf("%.6f,%.6f,%.6f,%.6f",
			m.Bounds[0], m.Bounds[1], m.Bounds[2], m.Bounds[3])
	}
	if m.Noise != nil {
		raw, err := json.Marshal(m.Noise)
		if err != nil {
			return nil, fmt.Errorf("failed to encode noise params: %w", err)
		}
		result["json"] = string(raw)
	}
	return result, nil
}

// metadataFromMap is the inverse of ToMap. Malformed numeric fields are
// left at their zero value; a malformed json row is an error.
func metadataFromMap(rows map[string]string) (Metadata, error) {
	meta := Metadata{
		Name:        rows["name"],
		Format:      rows["format"],
		Description: rows["description"],
		Type:        rows["type"],
		Version:     rows["version"],
	}
	if i, err := strconv.Atoi(rows["minzoom"]); err == nil {
		meta.MinZoom = i
	}
	if i, err := strconv.Atoi(rows["maxzoom"]); err == nil {
		meta.MaxZoom = i
	}

	if parts := strings.Split(rows["bounds"], ","); len(parts) == 4 {
		for i, part := range parts {
			if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
				meta.Bounds[i] = f
			}
		}
	}

	if raw, ok := rows["json"]; ok && raw != "" {
		var params NoiseParams
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return Metadata{}, fmt.Errorf("failed to decode noise params: %w", err)
		}
		meta.Noise = &params
	}
	return meta, nil
}
