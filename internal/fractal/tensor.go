package fractal

import "fmt"

// Tensor is a dense row-major array: the last axis varies fastest.
type Tensor struct {
	Data  []float64
	Shape []int
}

// NewTensor checks that data fills shape exactly.
func NewTensor(data []float64, shape ...int) (Tensor, error) {
	size, err := shapeSize(shape)
	if err != nil {
		return Tensor{}, err
	}
	if size != len(data) {
		return Tensor{}, fmt.Errorf("%w: shape %v holds %d values, got %d", ErrInvalidShape, shape, size, len(data))
	}
	return Tensor{Data: data, Shape: shape}, nil
}

// Size is the number of elements described by Shape.
func (t Tensor) Size() int {
	n := 1
	for _, s := range t.Shape {
		n *= s
	}
	return n
}

// At returns the element at the given multi-index. It panics on a bad index
// like a slice access would.
func (t Tensor) At(idx ...int) float64 {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("fractal: index rank %d for shape %v", len(idx), t.Shape))
	}
	off := 0
	for axis, i := range idx {
		if i < 0 || i >= t.Shape[axis] {
			panic(fmt.Sprintf("fractal: index %v out of range for shape %v", idx, t.Shape))
		}
		off = off*t.Shape[axis] + i
	}
	return t.Data[off]
}

func shapeSize(shape []int) (int, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return 0, fmt.Errorf("%w: non-positive axis in %v", ErrInvalidShape, shape)
		}
		n *= s
	}
	return n, nil
}
