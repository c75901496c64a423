package server

import (
	"path"
	"strings"

	"github.com/MeKo-Tech/fractalnoise/internal/tile"
)

// parseTilePath parses /tiles/z3_x1_y2.png or /tiles/z3_x1_y2@2x.png and
// returns the coordinates and the optional "@2x" suffix.
func parseTilePath(requestPath string) (tile.Coords, string, bool) {
	if !strings.HasPrefix(requestPath, "/tiles/") {
		return tile.Coords{}, "", false
	}
	base := path.Base(requestPath)
	if !strings.HasSuffix(base, ".png") {
		return tile.Coords{}, "", false
	}
	name := strings.TrimSuffix(base, ".png")
	suffix := ""
	if strings.HasSuffix(name, "@2x") {
		suffix = "@2x"
		name = strings.TrimSuffix(name, "@2x")
	}

	coords, err := tile.ParseCoords(name)
	if err != nil {
		return tile.Coords{}, "", false
	}
	return coords, suffix, true
}

func tileSizeForSuffix(base int, suffix string) int {
	if suffix == "@2x" {
		return base * 2
	}
	return base
}
