package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

func TestNoiseConfig_Build(t *testing.T) {
	nc := noiseConfig{
		Kind:        primitive.KindPerlin,
		Dims:        3,
		Seed:        9,
		Octaves:     4,
		Persistence: 0.6,
		Lacunarity:  1.8,
		Range:       "0, 1",
		Parallelism: 1,
	}

	n, err := nc.build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if n.Dims() != 3 || n.Octaves() != 4 || n.Persistence() != 0.6 || n.Lacunarity() != 1.8 {
		t.Errorf("unexpected noise %s", n)
	}
	if r := n.Range(); r.Min != 0 || r.Max != 1 {
		t.Errorf("Range = %v, want [0, 1]", r)
	}

	p := nc.params(n, 256, 8)
	if p.Kind != primitive.KindPerlin || p.Octaves != 4 || p.Range != [2]float64{0, 1} || p.TileSize != 256 {
		t.Errorf("unexpected params %+v", *p)
	}
}

func TestNoiseConfig_BuildErrors(t *testing.T) {
	base := noiseConfig{Kind: primitive.KindSimplex, Dims: 2, Octaves: 8, Persistence: 0.5, Lacunarity: 2}

	tests := []struct {
		name   string
		mutate func(*noiseConfig)
		target error
	}{
		{"unknown kind", func(c *noiseConfig) { c.Kind = "value" }, primitive.ErrUnknownKind},
		{"bad dims", func(c *noiseConfig) { c.Dims = 7 }, primitive.ErrUnsupportedDims},
		{"too many octaves", func(c *noiseConfig) { c.Octaves = 9 }, fractal.ErrInvalidParameter},
		{"zero lacunarity", func(c *noiseConfig) { c.Lacunarity = 0 }, fractal.ErrInvalidParameter},
		{"inverted range", func(c *noiseConfig) { c.Range = "1,0" }, primitive.ErrInvalidRange},
		{"malformed range", func(c *noiseConfig) { c.Range = "1" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			_, err := c.build()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v is not %v", err, tt.target)
			}
		})
	}
}

func TestBuildNoise_FromViper(t *testing.T) {
	viper.Set("noise.kind", primitive.KindSeamless)
	viper.Set("noise.dims", 2)
	viper.Set("noise.octaves", 3)
	viper.Set("noise.persistence", 0.5)
	viper.Set("noise.lacunarity", 2.0)
	viper.Set("noise.range", "")
	t.Cleanup(viper.Reset)

	n, err := buildNoise()
	if err != nil {
		t.Fatalf("buildNoise: %v", err)
	}
	if n.Octaves() != 3 {
		t.Errorf("Octaves = %d, want 3", n.Octaves())
	}
	if !strings.Contains(n.String(), "Seamless") {
		t.Errorf("String = %q, want seamless primitive", n.String())
	}
}

func TestRegionAxis(t *testing.T) {
	got := regionAxis(0, 4, 4)
	want := []float64{0.5, 1.5, 2.5, 3.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("regionAxis = %v, want %v", got, want)
		}
	}
}

func TestRunInfo(t *testing.T) {
	viper.Set("noise.kind", primitive.KindSimplex)
	viper.Set("noise.dims", 2)
	viper.Set("noise.octaves", 2)
	viper.Set("noise.persistence", 0.5)
	viper.Set("noise.lacunarity", 2.0)
	t.Cleanup(viper.Reset)

	var buf bytes.Buffer
	infoCmd.SetOut(&buf)
	t.Cleanup(func() { infoCmd.SetOut(nil) })

	if err := runInfo(infoCmd, nil); err != nil {
		t.Fatalf("runInfo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"fractal.Noise", "octave 0", "octave 1", "weight 0.666667", "weight 0.333333"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
