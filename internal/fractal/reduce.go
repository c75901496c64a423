package fractal

import "gonum.org/v1/gonum/floats"

// reduce treats raw as octaves rows of points values each and returns the
// weighted element-wise sum of the rows. raw is left untouched.
func (n *Noise) reduce(raw []float64, points int) []float64 {
	out := make([]float64, points)
	for i, w := range n.Weights() {
		floats.AddScaled(out, w, raw[i*points:(i+1)*points])
	}
	return out
}
