// Package texture renders seamless (tileable) fractal noise textures.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/heightmap"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

// ErrNotSeamless is returned for a lacunarity that would break the wrap.
var ErrNotSeamless = errors.New("texture: lacunarity must be a whole number for seamless textures")

// Params defines one texture.
type Params struct {
	Name        string
	BaseColor   color.RGBA
	Variation   float64 // 0..1 brightness swing around BaseColor
	Size        int
	Seed        int64
	Octaves     int
	Persistence float64
	Lacunarity  float64
}

// WriteResult reports which textures were written or skipped.
type WriteResult struct {
	Written []string
	Skipped []string
}

// DefaultSet is the named texture palette written by WriteDefaultTextures.
var DefaultSet = []struct {
	Name      string
	Color     color.RGBA
	Variation float64
}{
	{"land", color.RGBA{R: 218, G: 198, B: 174, A: 255}, 0.85},
	{"water", color.RGBA{R: 105, G: 160, B: 210, A: 255}, 0.9},
	{"grass", color.RGBA{R: 122, G: 170, B: 120, A: 255}, 0.8},
	{"rock", color.RGBA{R: 150, G: 140, B: 130, A: 255}, 0.7},
	{"sand", color.RGBA{R: 232, G: 202, B: 132, A: 255}, 0.6},
	{"paper", color.RGBA{R: 244, G: 240, B: 232, A: 255}, 0.3},
}

// Generate renders one seamless texture. Every octave repeats a whole number
// of times per unit, so the image wraps on both axes.
func Generate(p Params) (*image.RGBA, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	if p.Variation < 0 || p.Variation > 1 {
		return nil, fmt.Errorf("variation must be within [0,1]")
	}
	if p.Lacunarity != math.Trunc(p.Lacunarity) {
		return nil, fmt.Errorf("%w: got %g", ErrNotSeamless, p.Lacunarity)
	}

	prim, err := primitive.NewSeamless(p.Seed, primitive.WithRange(0, 1))
	if err != nil {
		return nil, err
	}
	n, err := fractal.New(prim,
		fractal.WithOctaves(p.Octaves),
		fractal.WithPersistence(p.Persistence),
		fractal.WithLacunarity(p.Lacunarity),
	)
	if err != nil {
		return nil, err
	}

	axis := make([]float64, p.Size)
	for i := range axis {
		axis[i] = float64(i) / float64(p.Size)
	}
	grid, err := n.EvalGrid(axis, axis)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, p.Size, p.Size))
	for y := 0; y < p.Size; y++ {
		for x := 0; x < p.Size; x++ {
			shade := 1 + p.Variation*(grid.At(y, x)-0.5)
			img.SetRGBA(x, y, color.RGBA{
				R: scale8(p.BaseColor.R, shade),
				G: scale8(p.BaseColor.G, shade),
				B: scale8(p.BaseColor.B, shade),
				A: 255,
			})
		}
	}
	return img, nil
}

// WriteDefaultTextures writes DefaultSet into dir as <name>.png. Existing
// files are skipped unless overwrite is set. tmpl supplies size, seed and
// the octave parameters; each texture offsets the seed.
func WriteDefaultTextures(dir string, tmpl Params, variationScale float64, overwrite bool) (WriteResult, error) {
	result := WriteResult{}
	if variationScale < 0 || variationScale > 1 {
		return result, fmt.Errorf("variation scale must be within [0,1]")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create texture dir: %w", err)
	}

	for i, def := range DefaultSet {
		path := filepath.Join(dir, def.Name+".png")
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				result.Skipped = append(result.Skipped, path)
				continue
			}
		}

		p := tmpl
		p.Name = def.Name
		p.BaseColor = def.Color
		p.Variation = def.Variation * variationScale
		p.Seed = tmpl.Seed + int64(i)*1000

		img, err := Generate(p)
		if err != nil {
			return result, fmt.Errorf("texture %s: %w", def.Name, err)
		}
		data, err := heightmap.EncodePNG(img, "best")
		if err != nil {
			return result, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return result, fmt.Errorf("failed to write texture %s: %w", path, err)
		}
		result.Written = append(result.Written, path)
	}
	return result, nil
}

func scale8(c uint8, f float64) uint8 {
	v := math.Round(float64(c) * f)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
