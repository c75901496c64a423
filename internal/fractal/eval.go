package fractal

import "fmt"

// Eval evaluates a batch of points. The last axis of coords holds the
// coordinate components and must equal Dims(); the result has the remaining
// leading axes as its shape.
//
// Two shorthands exist for one-dimensional noise: an empty shape holding a
// single value is one scalar point (result shape []), and a one-axis shape or
// one whose last axis is not 1 is read entirely as batch axes.
func (n *Noise) Eval(coords Tensor) (Tensor, error) {
	shape, points, err := n.batchShape(coords)
	if err != nil {
		return Tensor{}, err
	}
	return Tensor{Data: n.evalFlat(coords.Data, points), Shape: shape}, nil
}

// EvalPoints evaluates a list of coordinate tuples, one value per tuple.
func (n *Noise) EvalPoints(points [][]float64) ([]float64, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidShape)
	}
	dims := n.prim.Dims()
	flat := make([]float64, 0, len(points)*dims)
	for i, p := range points {
		if len(p) != dims {
			return nil, fmt.Errorf("%w: point %d has %d components, want %d", ErrInvalidShape, i, len(p), dims)
		}
		flat = append(flat, p...)
	}
	return n.evalFlat(flat, len(points)), nil
}

// EvalGrid evaluates every combination of the per-axis coordinates. It takes
// exactly Dims() non-empty axes; for axes of lengths [L1, L2, L3] the result
// has shape [L3, L2, L1], so the first axis varies along the last dimension.
func (n *Noise) EvalGrid(axes ...[]float64) (Tensor, error) {
	if len(axes) != n.prim.Dims() {
		return Tensor{}, fmt.Errorf("%w: grid needs %d axes, got %d", ErrInvalidShape, n.prim.Dims(), len(axes))
	}
	for i, a := range axes {
		if len(a) == 0 {
			return Tensor{}, fmt.Errorf("%w: grid axis %d is empty", ErrInvalidShape, i)
		}
	}

	flat, points := gridPoints(axes)
	return Tensor{Data: n.evalFlat(flat, points), Shape: reversedLengths(axes)}, nil
}

// evalFlat runs expansion, the single primitive call and the reduction for
// an already validated batch.
func (n *Noise) evalFlat(coords []float64, points int) []float64 {
	expanded := n.expand(coords, points)
	raw := n.prim.Eval(expanded)
	out := n.reduce(raw, points)
	n.prim.ApplyRange(out)
	return out
}

func (n *Noise) batchShape(coords Tensor) ([]int, int, error) {
	dims := n.prim.Dims()

	if len(coords.Shape) == 0 {
		if dims != 1 || len(coords.Data) != 1 {
			return nil, 0, fmt.Errorf("%w: scalar input needs 1-D noise and one value", ErrInvalidShape)
		}
		return []int{}, 1, nil
	}

	size, err := shapeSize(coords.Shape)
	if err != nil {
		return nil, 0, err
	}
	if size != len(coords.Data) {
		return nil, 0, fmt.Errorf("%w: shape %v holds %d values, got %d", ErrInvalidShape, coords.Shape, size, len(coords.Data))
	}

	last := coords.Shape[len(coords.Shape)-1]
	if dims == 1 && (last != 1 || len(coords.Shape) == 1) {
		return append([]int(nil), coords.Shape...), size, nil
	}
	if last != dims {
		return nil, 0, fmt.Errorf("%w: trailing axis %d does not match %d-D noise", ErrInvalidShape, last, dims)
	}
	return append([]int{}, coords.Shape[:len(coords.Shape)-1]...), size / dims, nil
}
