package primitive

import (
	"fmt"

	"github.com/aquilax/go-perlin"
)

// Perlin is classic gradient noise in 1 to 3 dimensions backed by go-perlin.
// The generator runs a single octave; layering is the caller's job.
type Perlin struct {
	base
	seed int64
	p    *perlin.Perlin
}

// NewPerlin creates a Perlin primitive.
func NewPerlin(dims int, seed int64, opts ...Option) (*Perlin, error) {
	if dims < 1 || dims > 3 {
		return nil, fmt.Errorf("%w: perlin supports 1-3 dimensions, got %d", ErrUnsupportedDims, dims)
	}
	b, err := newBase(dims, Range{Min: -1, Max: 1}, opts)
	if err != nil {
		return nil, err
	}

	// alpha and beta only matter for n > 1
	return &Perlin{
		base: b,
		seed: seed,
		p:    perlin.NewPerlin(2.0, 2.0, 1, seed),
	}, nil
}

// Eval samples one value per tuple.
func (p *Perlin) Eval(coords []float64) []float64 {
	n := len(coords) / p.dims
	out := p.buffer(n)

	switch p.dims {
	case 1:
		for i := range out {
			out[i] = p.p.Noise1D(coords[i])
		}
	case 2:
		for i := range out {
			c := coords[i*2:]
			out[i] = p.p.Noise2D(c[0], c[1])
		}
	case 3:
		for i := range out {
			c := coords[i*3:]
			out[i] = p.p.Noise3D(c[0], c[1], c[2])
		}
	}
	return out
}

// String describes the primitive and its seed.
func (p *Perlin) String() string { return p.describe("Perlin", p.seed) }
