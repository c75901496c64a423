package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/heightmap"
	"github.com/MeKo-Tech/fractalnoise/internal/tile"
)

// NoiseFactory builds one independent noise instance.
type NoiseFactory func() (*fractal.Noise, error)

// GeneratorOptions configures tile rendering.
type GeneratorOptions struct {
	TileSize int
	// Scale is the noise-space extent of the whole world on each axis.
	Scale          float64
	Instances      int
	Colorize       bool
	Filter         heightmap.FilterOptions
	PNGCompression string
	// FolderStructure is "flat" (z{z}_x{x}_y{y}.png) or "nested" ({z}/{x}/{y}.png).
	FolderStructure string
}

// Generator renders fractal noise tiles. It keeps one noise instance per
// concurrent render, so Render is safe to call from many goroutines.
type Generator struct {
	logger    *slog.Logger
	instances chan *fractal.Noise
	opts      GeneratorOptions
	desc      string
}

// NewGenerator prepares opts.Instances noise instances from factory.
func NewGenerator(factory NoiseFactory, opts GeneratorOptions, logger *slog.Logger) (*Generator, error) {
	if opts.TileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive")
	}
	if opts.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive")
	}
	if opts.Instances <= 0 {
		opts.Instances = 1
	}
	if opts.FolderStructure == "" {
		opts.FolderStructure = "flat"
	}
	if opts.FolderStructure != "flat" && opts.FolderStructure != "nested" {
		return nil, fmt.Errorf("invalid folder structure %q: must be 'flat' or 'nested'", opts.FolderStructure)
	}
	if _, err := heightmap.ParseCompression(opts.PNGCompression); err != nil {
		return nil, err
	}

	g := &Generator{
		logger:    logger,
		instances: make(chan *fractal.Noise, opts.Instances),
		opts:      opts,
	}
	for i := 0; i < opts.Instances; i++ {
		n, err := factory()
		if err != nil {
			return nil, fmt.Errorf("failed to create noise instance: %w", err)
		}
		if n.Dims() != 2 {
			return nil, fmt.Errorf("tiles need 2-D noise, got %d-D", n.Dims())
		}
		g.desc = n.String()
		g.instances <- n
	}
	return g, nil
}

// Options returns the effective options.
func (g *Generator) Options() GeneratorOptions { return g.opts }

// Describe returns the diagnostic string of the noise in use.
func (g *Generator) Describe() string { return g.desc }

// Render produces the PNG bytes of one tile.
func (g *Generator) Render(ctx context.Context, coords tile.Coords) ([]byte, error) {
	if !coords.Valid() {
		return nil, fmt.Errorf("tile %s does not exist", coords)
	}
	xs, ys := coords.Axes(g.opts.TileSize, g.opts.Scale)

	img, _, err := g.RenderRegion(ctx, xs, ys)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", coords, err)
	}
	return heightmap.EncodePNG(img, g.opts.PNGCompression)
}

// RenderRegion evaluates the grid xs x ys and returns the post-processed
// image (ys become rows) with statistics of the raw values.
func (g *Generator) RenderRegion(ctx context.Context, xs, ys []float64) (image.Image, heightmap.Summary, error) {
	var n *fractal.Noise
	select {
	case n = <-g.instances:
	case <-ctx.Done():
		return nil, heightmap.Summary{}, ctx.Err()
	}

	grid, err := n.EvalGrid(xs, ys)
	rng := n.Range()
	g.instances <- n
	if err != nil {
		return nil, heightmap.Summary{}, err
	}

	gray, err := heightmap.FromTensor(grid, rng.Min, rng.Max)
	if err != nil {
		return nil, heightmap.Summary{}, err
	}

	var img image.Image = gray
	if g.opts.Colorize {
		if img, err = heightmap.Colorize(gray, heightmap.TerrainRamp); err != nil {
			return nil, heightmap.Summary{}, err
		}
	}
	return heightmap.Filter(img, g.opts.Filter), heightmap.Stats(grid.Data), nil
}

// TilePath returns where a tile lives under outputDir. suffix ("" or "@2x")
// goes before the extension, so HiDPI tiles sit next to the base tiles.
func (g *Generator) TilePath(outputDir string, coords tile.Coords, suffix string) string {
	return TilePath(outputDir, g.opts.FolderStructure, coords, suffix)
}

// TileExists reports whether the tile file is already on disk.
func (g *Generator) TileExists(outputDir string, coords tile.Coords, suffix string) bool {
	st, err := os.Stat(g.TilePath(outputDir, coords, suffix))
	return err == nil && !st.IsDir()
}

// SaveTile writes rendered tile data to its path under outputDir. The file
// is replaced atomically, so readers never see a partial tile.
func (g *Generator) SaveTile(outputDir string, coords tile.Coords, suffix string, data []byte) (string, error) {
	path := g.TilePath(outputDir, coords, suffix)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write tile %s: %w", path, err)
	}
	g.log().Debug("Tile saved", "coords", coords.String(), "suffix", suffix, "path", path)
	return path, nil
}

// TilePath lays out tiles as "flat" (z{z}_x{x}_y{y}{suffix}.png) or
// "nested" ({z}/{x}/{y}{suffix}.png). Anything else is treated as flat.
func TilePath(outputDir, structure string, coords tile.Coords, suffix string) string {
	if structure == "nested" {
		return filepath.Join(outputDir,
			fmt.Sprintf("%d", coords.Z), fmt.Sprintf("%d", coords.X), fmt.Sprintf("%d%s.png", coords.Y, suffix))
	}
	return filepath.Join(outputDir, coords.Path(suffix, "png"))
}

func writeFileAtomic(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tile-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
