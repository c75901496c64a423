// Package fractal layers several frequency- and amplitude-scaled octaves of
// a single-octave noise primitive into fractal (fBm) noise.
//
// All octaves of a query are expanded into one coordinate batch and handed
// to the primitive in a single Eval call; the per-octave rows are then
// weighted, summed and remapped into the primitive's declared range.
//
// A Noise is not safe for concurrent use. Confine each instance to one
// goroutine or wrap it in a Locked.
package fractal

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

// Parameter defaults and bounds.
const (
	DefaultOctaves     = 8
	DefaultPersistence = 0.5
	DefaultLacunarity  = 2.0

	MinOctaves = 1
	MaxOctaves = 8
)

// Noise is multi-octave noise over one owned primitive.
type Noise struct {
	prim        primitive.Primitive
	octaves     int
	persistence float64
	lacunarity  float64
	workers     int
}

type settings struct {
	octaves     int
	persistence float64
	lacunarity  float64
	workers     int
}

// Option configures a Noise at construction time.
type Option func(*settings)

// WithOctaves sets the number of layered octaves (1..8).
func WithOctaves(n int) Option {
	return func(s *settings) { s.octaves = n }
}

// WithPersistence sets the amplitude factor between octaves (0 < p <= 1).
func WithPersistence(p float64) Option {
	return func(s *settings) { s.persistence = p }
}

// WithLacunarity sets the frequency factor between octaves (l >= 1).
func WithLacunarity(l float64) Option {
	return func(s *settings) { s.lacunarity = l }
}

// WithParallelism lets coordinate expansion of large batches run on up to
// workers goroutines. Values below 2 keep it sequential.
func WithParallelism(workers int) Option {
	return func(s *settings) { s.workers = workers }
}

// New creates fractal noise over prim, which the Noise owns from here on.
func New(prim primitive.Primitive, opts ...Option) (*Noise, error) {
	if prim == nil {
		return nil, fmt.Errorf("%w: nil primitive", ErrInvalidParameter)
	}

	s := settings{
		octaves:     DefaultOctaves,
		persistence: DefaultPersistence,
		lacunarity:  DefaultLacunarity,
	}
	for _, opt := range opts {
		opt(&s)
	}

	if err := validateOctaves(s.octaves); err != nil {
		return nil, err
	}
	if err := validatePersistence(s.persistence); err != nil {
		return nil, err
	}
	if err := validateLacunarity(s.lacunarity); err != nil {
		return nil, err
	}

	n := &Noise{
		prim:        prim,
		octaves:     s.octaves,
		persistence: s.persistence,
		lacunarity:  s.lacunarity,
		workers:     s.workers,
	}
	prim.Provision(n.octaves)
	return n, nil
}

// Primitive returns the underlying single-octave source.
func (n *Noise) Primitive() primitive.Primitive { return n.prim }

// Dims is the dimensionality of every coordinate tuple.
func (n *Noise) Dims() int { return n.prim.Dims() }

// Range is the output range of Eval, taken from the primitive.
func (n *Noise) Range() primitive.Range { return n.prim.Range() }

// Octaves is the number of layers summed.
func (n *Noise) Octaves() int { return n.octaves }

// Persistence is the amplitude ratio between consecutive octaves.
func (n *Noise) Persistence() float64 { return n.persistence }

// Lacunarity is the frequency ratio between consecutive octaves.
func (n *Noise) Lacunarity() float64 { return n.lacunarity }

// SetOctaves changes the octave count and re-provisions the primitive for
// the new batch multiplier.
func (n *Noise) SetOctaves(octaves int) error {
	if err := validateOctaves(octaves); err != nil {
		return err
	}
	n.octaves = octaves
	n.prim.Provision(octaves)
	return nil
}

// SetPersistence sets the amplitude ratio; p must be in (0, 1].
func (n *Noise) SetPersistence(p float64) error {
	if err := validatePersistence(p); err != nil {
		return err
	}
	n.persistence = p
	return nil
}

// SetLacunarity sets the frequency ratio; l must be finite and at least 1.
func (n *Noise) SetLacunarity(l float64) error {
	if err := validateLacunarity(l); err != nil {
		return err
	}
	n.lacunarity = l
	return nil
}

// Weights returns the per-octave amplitudes persistence^i, normalised so
// they sum to one: octaves all at an extreme of the native range combine to
// that same extreme.
func (n *Noise) Weights() []float64 {
	return weights(n.octaves, n.persistence)
}

func weights(octaves int, p float64) []float64 {
	h := float64(octaves)
	if p != 1 {
		h = (1 - math.Pow(p, float64(octaves))) / (1 - p)
	}

	w := make([]float64, octaves)
	amp := 1.0
	for i := range w {
		w[i] = amp / h
		amp *= p
	}
	return w
}

// String describes the primitive and the octave parameters.
func (n *Noise) String() string {
	return fmt.Sprintf("<fractal.Noise %v oct=%d per=%g lac=%g>", n.prim, n.octaves, n.persistence, n.lacunarity)
}

func validateOctaves(n int) error {
	if n < MinOctaves || n > MaxOctaves {
		return fmt.Errorf("%w: octaves must be within [%d,%d], got %d", ErrInvalidParameter, MinOctaves, MaxOctaves, n)
	}
	return nil
}

func validatePersistence(p float64) error {
	if !(p > 0 && p <= 1) {
		return fmt.Errorf("%w: persistence must be within (0,1], got %g", ErrInvalidParameter, p)
	}
	return nil
}

func validateLacunarity(l float64) error {
	if !(l >= 1) || math.IsInf(l, 1) {
		return fmt.Errorf("%w: lacunarity must be >= 1, got %g", ErrInvalidParameter, l)
	}
	return nil
}
