package fractal

import (
	"testing"

	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

func benchmarkGrid(b *testing.B, size int, opts ...Option) {
	prim, err := primitive.NewSimplex(2, 1)
	if err != nil {
		b.Fatal(err)
	}
	n, err := New(prim, opts...)
	if err != nil {
		b.Fatal(err)
	}

	axis := make([]float64, size)
	for i := range axis {
		axis[i] = float64(i) / float64(size) * 8
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := n.EvalGrid(axis, axis); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvalGrid256(b *testing.B)         { benchmarkGrid(b, 256) }
func BenchmarkEvalGrid256Oct1(b *testing.B)     { benchmarkGrid(b, 256, WithOctaves(1)) }
func BenchmarkEvalGrid512Parallel(b *testing.B) { benchmarkGrid(b, 512, WithParallelism(4)) }
