package primitive

import "fmt"

// Func adapts a plain Go function to the Primitive interface.
type Func struct {
	base
	name string
	fn   func(p []float64) float64
}

// NewFunc wraps fn, which must return values inside native.
func NewFunc(name string, dims int, native Range, fn func(p []float64) float64, opts ...Option) (*Func, error) {
	if dims < 1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDims, dims)
	}
	if !native.valid() {
		return nil, fmt.Errorf("%w: native %s", ErrInvalidRange, native)
	}
	b, err := newBase(dims, native, opts)
	if err != nil {
		return nil, err
	}
	return &Func{base: b, name: name, fn: fn}, nil
}

// Eval applies the wrapped function to each tuple.
func (f *Func) Eval(coords []float64) []float64 {
	n := len(coords) / f.dims
	out := f.buffer(n)
	for i := range out {
		out[i] = f.fn(coords[i*f.dims : (i+1)*f.dims])
	}
	return out
}

// String describes the wrapped function.
func (f *Func) String() string { return f.describe("Func "+f.name, 0) }
