package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fractalnoise/internal/pipeline"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

// noiseConfig mirrors the noise.* keys.
type noiseConfig struct {
	Kind        string
	Range       string
	Seed        int64
	Persistence float64
	Lacunarity  float64
	Dims        int
	Octaves     int
	Parallelism int
}

func noiseConfigFromViper() noiseConfig {
	return noiseConfig{
		Kind:        viper.GetString("noise.kind"),
		Dims:        viper.GetInt("noise.dims"),
		Seed:        viper.GetInt64("noise.seed"),
		Octaves:     viper.GetInt("noise.octaves"),
		Persistence: viper.GetFloat64("noise.persistence"),
		Lacunarity:  viper.GetFloat64("noise.lacunarity"),
		Range:       viper.GetString("noise.range"),
		Parallelism: viper.GetInt("noise.parallelism"),
	}
}

// build creates a fresh noise instance.
func (c noiseConfig) build() (*fractal.Noise, error) {
	var opts []primitive.Option
	if strings.TrimSpace(c.Range) != "" {
		lo, hi, err := parseRange(c.Range)
		if err != nil {
			return nil, err
		}
		opts = append(opts, primitive.WithRange(lo, hi))
	}

	prim, err := primitive.New(c.Kind, c.Dims, c.Seed, opts...)
	if err != nil {
		return nil, err
	}

	return fractal.New(prim,
		fractal.WithOctaves(c.Octaves),
		fractal.WithPersistence(c.Persistence),
		fractal.WithLacunarity(c.Lacunarity),
		fractal.WithParallelism(c.Parallelism),
	)
}

// factory returns a pipeline.NoiseFactory for c. Each call builds its own
// primitive so generator instances share no state.
func (c noiseConfig) factory() pipeline.NoiseFactory {
	return c.build
}

func (c noiseConfig) params(n *fractal.Noise, tileSize int, scale float64) *mbtiles.NoiseParams {
	rng := n.Range()
	return &mbtiles.NoiseParams{
		Kind:        c.Kind,
		Dims:        n.Dims(),
		Seed:        c.Seed,
		Octaves:     n.Octaves(),
		Persistence: n.Persistence(),
		Lacunarity:  n.Lacunarity(),
		Range:       [2]float64{rng.Min, rng.Max},
		TileSize:    tileSize,
		Scale:       scale,
	}
}

// buildNoise builds the noise described by the noise.* configuration.
func buildNoise() (*fractal.Noise, error) {
	n, err := noiseConfigFromViper().build()
	if err != nil {
		return nil, fmt.Errorf("invalid noise configuration: %w", err)
	}
	return n, nil
}

func parseRange(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range %q: expected \"lo,hi\"", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	return lo, hi, nil
}
