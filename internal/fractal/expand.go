package fractal

import (
	"github.com/sourcegraph/conc"
)

// minParallelPoints is the smallest batch worth splitting across goroutines.
const minParallelPoints = 4096

// expand lays out every octave's copy of the batch in one flat buffer.
// Element (octave, point, dim) lives at octave*points*dims + point*dims + dim,
// and block i is block i-1 multiplied by lacunarity.
func (n *Noise) expand(coords []float64, points int) []float64 {
	dims := n.prim.Dims()
	stride := points * dims
	buf := make([]float64, n.octaves*stride)
	copy(buf[:stride], coords[:stride])

	if n.workers < 2 || points < minParallelPoints || n.octaves == 1 {
		n.scaleOctaves(buf, stride, 0, stride)
		return buf
	}

	// Each worker owns a contiguous point range in every octave block.
	chunk := (points + n.workers - 1) / n.workers
	var wg conc.WaitGroup
	for start := 0; start < points; start += chunk {
		lo := start * dims
		hi := min(start+chunk, points) * dims
		wg.Go(func() {
			n.scaleOctaves(buf, stride, lo, hi)
		})
	}
	wg.Wait()
	return buf
}

// scaleOctaves fills [lo, hi) of octave blocks 1.. from the block before.
func (n *Noise) scaleOctaves(buf []float64, stride, lo, hi int) {
	lac := n.lacunarity
	for i := 1; i < n.octaves; i++ {
		prev := buf[(i-1)*stride : i*stride]
		cur := buf[i*stride : (i+1)*stride]
		for j := lo; j < hi; j++ {
			cur[j] = prev[j] * lac
		}
	}
}

// gridPoints expands per-axis coordinates into their Cartesian product as
// a flat batch of points. Axis 0 varies fastest, so reading the values back
// with the reversed axis lengths as shape gives a meshgrid layout.
func gridPoints(axes [][]float64) ([]float64, int) {
	dims := len(axes)
	points := 1
	for _, a := range axes {
		points *= len(a)
	}

	flat := make([]float64, points*dims)
	step := 1
	for d, axis := range axes {
		l := len(axis)
		for k := 0; k < points; k++ {
			flat[k*dims+d] = axis[(k/step)%l]
		}
		step *= l
	}
	return flat, points
}

func reversedLengths(axes [][]float64) []int {
	shape := make([]int, len(axes))
	for i, a := range axes {
		shape[len(axes)-1-i] = len(a)
	}
	return shape
}
