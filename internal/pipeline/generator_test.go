package pipeline

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
	"github.com/MeKo-Tech/fractalnoise/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simplexFactory(seed int64) NoiseFactory {
	return func() (*fractal.Noise, error) {
		prim, err := primitive.New(primitive.KindSimplex, 2, seed)
		if err != nil {
			return nil, err
		}
		return fractal.New(prim, fractal.WithOctaves(4))
	}
}

func newTestGenerator(t *testing.T, opts GeneratorOptions) *Generator {
	t.Helper()
	if opts.TileSize == 0 {
		opts.TileSize = 32
	}
	if opts.Scale == 0 {
		opts.Scale = 8
	}
	gen, err := NewGenerator(simplexFactory(7), opts, nil)
	require.NoError(t, err)
	return gen
}

func TestNewGenerator_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts GeneratorOptions
	}{
		{"zero tile size", GeneratorOptions{Scale: 1}},
		{"zero scale", GeneratorOptions{TileSize: 16}},
		{"bad folder structure", GeneratorOptions{TileSize: 16, Scale: 1, FolderStructure: "deep"}},
		{"bad compression", GeneratorOptions{TileSize: 16, Scale: 1, PNGCompression: "ultra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(simplexFactory(1), tt.opts, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewGenerator_RejectsNon2DNoise(t *testing.T) {
	factory := func() (*fractal.Noise, error) {
		prim, err := primitive.New(primitive.KindSimplex, 3, 1)
		if err != nil {
			return nil, err
		}
		return fractal.New(prim)
	}
	_, err := NewGenerator(factory, GeneratorOptions{TileSize: 16, Scale: 1}, nil)
	assert.Error(t, err)
}

func TestGenerator_Render(t *testing.T) {
	gen := newTestGenerator(t, GeneratorOptions{Instances: 2})

	data, err := gen.Render(context.Background(), tile.NewCoords(2, 1, 3))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestGenerator_RenderDeterministic(t *testing.T) {
	a := newTestGenerator(t, GeneratorOptions{})
	b := newTestGenerator(t, GeneratorOptions{})
	coords := tile.NewCoords(1, 0, 1)

	da, err := a.Render(context.Background(), coords)
	require.NoError(t, err)
	db, err := b.Render(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestGenerator_RenderInvalidTile(t *testing.T) {
	gen := newTestGenerator(t, GeneratorOptions{})
	_, err := gen.Render(context.Background(), tile.NewCoords(1, 5, 0))
	assert.Error(t, err)
}

func TestGenerator_RenderCancelled(t *testing.T) {
	gen := newTestGenerator(t, GeneratorOptions{Instances: 1})

	// Hold the only instance so Render has to wait on the context.
	n := <-gen.instances
	defer func() { gen.instances <- n }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gen.Render(ctx, tile.NewCoords(0, 0, 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_RenderRegionColorize(t *testing.T) {
	gen := newTestGenerator(t, GeneratorOptions{Colorize: true})

	xs := []float64{0, 0.5, 1, 1.5}
	ys := []float64{0, 0.5}
	img, summary, err := gen.RenderRegion(context.Background(), xs, ys)
	require.NoError(t, err)

	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.GreaterOrEqual(t, summary.Min, -1.0)
	assert.LessOrEqual(t, summary.Max, 1.0)
}

func TestGenerator_SaveTile(t *testing.T) {
	for _, structure := range []string{"flat", "nested"} {
		t.Run(structure, func(t *testing.T) {
			dir := t.TempDir()
			gen := newTestGenerator(t, GeneratorOptions{FolderStructure: structure})
			coords := tile.NewCoords(3, 2, 5)

			assert.False(t, gen.TileExists(dir, coords, ""))

			data, err := gen.Render(context.Background(), coords)
			require.NoError(t, err)
			path, err := gen.SaveTile(dir, coords, "", data)
			require.NoError(t, err)
			assert.Equal(t, gen.TilePath(dir, coords, ""), path)
			assert.True(t, gen.TileExists(dir, coords, ""))
			assert.False(t, gen.TileExists(dir, coords, "@2x"), "suffixed tile is a separate file")

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, data, got)

			// no temp files left behind
			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestGenerator_TilePath(t *testing.T) {
	coords := tile.NewCoords(4, 3, 9)

	flat := newTestGenerator(t, GeneratorOptions{})
	assert.Equal(t, filepath.Join("out", "z4_x3_y9.png"), flat.TilePath("out", coords, ""))
	assert.Equal(t, filepath.Join("out", "z4_x3_y9@2x.png"), flat.TilePath("out", coords, "@2x"))

	nested := newTestGenerator(t, GeneratorOptions{FolderStructure: "nested"})
	assert.Equal(t, filepath.Join("out", "4", "3", "9.png"), nested.TilePath("out", coords, ""))
	assert.Equal(t, filepath.Join("out", "4", "3", "9@2x.png"), nested.TilePath("out", coords, "@2x"))

	assert.Equal(t, nested.TilePath("out", coords, "@2x"), TilePath("out", "nested", coords, "@2x"))
}

func TestGenerator_Options(t *testing.T) {
	gen := newTestGenerator(t, GeneratorOptions{TileSize: 64})
	opts := gen.Options()
	assert.Equal(t, 64, opts.TileSize)
	assert.Equal(t, 1, opts.Instances, "instances default to one")
	assert.Equal(t, "flat", opts.FolderStructure)
}
