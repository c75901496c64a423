package primitive

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
)

// Simplex is OpenSimplex noise in 2 to 4 dimensions.
type Simplex struct {
	base
	seed int64
	os   opensimplex.Noise
}

// NewSimplex creates a Simplex primitive.
func NewSimplex(dims int, seed int64, opts ...Option) (*Simplex, error) {
	if dims < 2 || dims > 4 {
		return nil, fmt.Errorf("%w: simplex supports 2-4 dimensions, got %d", ErrUnsupportedDims, dims)
	}
	b, err := newBase(dims, Range{Min: -1, Max: 1}, opts)
	if err != nil {
		return nil, err
	}
	return &Simplex{base: b, seed: seed, os: opensimplex.New(seed)}, nil
}

// Eval samples one value per tuple.
func (s *Simplex) Eval(coords []float64) []float64 {
	n := len(coords) / s.dims
	out := s.buffer(n)

	switch s.dims {
	case 2:
		for i := range out {
			c := coords[i*2:]
			out[i] = s.os.Eval2(c[0], c[1])
		}
	case 3:
		for i := range out {
			c := coords[i*3:]
			out[i] = s.os.Eval3(c[0], c[1], c[2])
		}
	case 4:
		for i := range out {
			c := coords[i*4:]
			out[i] = s.os.Eval4(c[0], c[1], c[2], c[3])
		}
	}
	return out
}

// String describes the primitive and its seed.
func (s *Simplex) String() string { return s.describe("Simplex", s.seed) }
