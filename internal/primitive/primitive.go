// Package primitive provides single-octave coherent noise sources that the
// fractal layer composes into multi-octave noise.
package primitive

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnsupportedDims is returned when a primitive cannot evaluate the requested dimensionality.
	ErrUnsupportedDims = errors.New("primitive: unsupported dimensionality")

	// ErrUnknownKind is returned by New for an unregistered primitive kind.
	ErrUnknownKind = errors.New("primitive: unknown kind")

	// ErrInvalidRange is returned when a declared output range is empty or not finite.
	ErrInvalidRange = errors.New("primitive: invalid output range")
)

// Primitive kinds accepted by New.
const (
	KindPerlin   = "perlin"
	KindSimplex  = "simplex"
	KindSeamless = "seamless"
)

// Primitive is a single-octave N-dimensional coherent noise source.
type Primitive interface {
	// Dims is the number of components of every coordinate tuple.
	Dims() int

	// Range is the closed interval ApplyRange maps values into.
	Range() Range

	// Provision hints the batch-size multiplier the caller will use, so
	// scratch buffers are sized once instead of per call. Idempotent.
	Provision(multiplier int)

	// Eval evaluates len(coords)/Dims() tuples laid out contiguously and
	// returns one value per tuple. The returned slice is owned by the
	// primitive and is only valid until the next Eval.
	Eval(coords []float64) []float64

	// ApplyRange remaps values from the native range into Range, in place.
	ApplyRange(values []float64)
}

// Range is a closed interval of noise values.
type Range struct {
	Min float64
	Max float64
}

// Span returns Max-Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// String formats the range as [min,max].
func (r Range) String() string {
	return fmt.Sprintf("[%g,%g]", r.Min, r.Max)
}

func (r Range) valid() bool {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return false
	}
	return r.Min < r.Max
}

// Option configures a primitive at construction time.
type Option func(*base)

// WithRange declares the output range ApplyRange maps into.
// Defaults to the primitive's native range.
func WithRange(lo, hi float64) Option {
	return func(b *base) {
		b.target = Range{Min: lo, Max: hi}
	}
}

// New builds a primitive by kind name.
func New(kind string, dims int, seed int64, opts ...Option) (Primitive, error) {
	switch kind {
	case KindPerlin:
		return NewPerlin(dims, seed, opts...)
	case KindSimplex:
		return NewSimplex(dims, seed, opts...)
	case KindSeamless:
		if dims != 2 {
			return nil, fmt.Errorf("%w: seamless noise is 2-D only, got %d", ErrUnsupportedDims, dims)
		}
		return NewSeamless(seed, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// base carries the state every primitive shares: dimensionality, the
// native/declared ranges and the provisioned scratch buffer.
type base struct {
	dims   int
	native Range
	target Range
	mult   int
	out    []float64
}

func newBase(dims int, native Range, opts []Option) (base, error) {
	b := base{dims: dims, native: native, target: native, mult: 1}
	for _, opt := range opts {
		opt(&b)
	}
	if !b.target.valid() {
		return base{}, fmt.Errorf("%w: %s", ErrInvalidRange, b.target)
	}
	return b, nil
}

// Dims is the tuple size Eval expects.
func (b *base) Dims() int { return b.dims }

// Range is the declared output range.
func (b *base) Range() Range { return b.target }

// Provision rescales the scratch capacity from the previous multiplier to
// the new one, keeping room for the same caller batch size.
func (b *base) Provision(multiplier int) {
	if multiplier < 1 {
		multiplier = 1
	}
	if multiplier == b.mult {
		return
	}
	if c := cap(b.out); c > 0 {
		perBatch := (c + b.mult - 1) / b.mult
		b.out = make([]float64, 0, perBatch*multiplier)
	}
	b.mult = multiplier
}

// Multiplier returns the last provisioned batch-size multiplier.
func (b *base) Multiplier() int { return b.mult }

func (b *base) buffer(n int) []float64 {
	if cap(b.out) < n {
		b.out = make([]float64, n)
	}
	return b.out[:n]
}

// ApplyRange maps native values onto the declared range in place.
func (b *base) ApplyRange(values []float64) {
	scale := b.target.Span() / b.native.Span()
	for i, v := range values {
		v = b.target.Min + (v-b.native.Min)*scale
		if v < b.target.Min {
			v = b.target.Min
		} else if v > b.target.Max {
			v = b.target.Max
		}
		values[i] = v
	}
}

func (b *base) describe(name string, seed int64) string {
	return fmt.Sprintf("<%s dims=%d seed=%d range=%s fwm=%d>", name, b.dims, seed, b.target, b.mult)
}
