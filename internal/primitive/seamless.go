package primitive

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// torusRadius sets how much of the 4-D simplex lattice one period covers.
const torusRadius = 1.5

// Seamless is 2-D noise that repeats with period 1 along both axes. Each
// (u, v) is mapped onto a torus in 4-D and sampled with OpenSimplex, so
// integer lacunarities keep every octave tileable.
type Seamless struct {
	base
	seed int64
	os   opensimplex.Noise
}

// NewSeamless creates a periodic 2-D primitive.
func NewSeamless(seed int64, opts ...Option) (*Seamless, error) {
	b, err := newBase(2, Range{Min: -1, Max: 1}, opts)
	if err != nil {
		return nil, err
	}
	return &Seamless{base: b, seed: seed, os: opensimplex.New(seed)}, nil
}

// Eval samples one value per (u, v) pair.
func (s *Seamless) Eval(coords []float64) []float64 {
	n := len(coords) / 2
	out := s.buffer(n)
	for i := range out {
		theta := 2 * math.Pi * coords[i*2]
		phi := 2 * math.Pi * coords[i*2+1]
		out[i] = s.os.Eval4(
			math.Cos(theta)*torusRadius,
			math.Sin(theta)*torusRadius,
			math.Cos(phi)*torusRadius,
			math.Sin(phi)*torusRadius,
		)
	}
	return out
}

// String describes the primitive and its seed.
func (s *Seamless) String() string { return s.describe("Seamless", s.seed) }
