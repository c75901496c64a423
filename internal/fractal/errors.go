package fractal

import "errors"

var (
	// ErrInvalidParameter is returned when octaves, persistence or lacunarity
	// is outside its domain, or no primitive is supplied. The receiver is
	// left unchanged.
	ErrInvalidParameter = errors.New("fractal: invalid parameter")

	// ErrInvalidShape is returned when coordinates are empty, ragged, do not
	// match the primitive's dimensionality or, in grid mode, supply the wrong
	// number of axes. The primitive is never called in that case.
	ErrInvalidShape = errors.New("fractal: invalid coordinate shape")
)
