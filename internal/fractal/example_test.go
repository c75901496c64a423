package fractal_test

import (
	"fmt"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

func ExampleNoise_Weights() {
	prim, _ := primitive.NewPerlin(2, 1)
	n, _ := fractal.New(prim, fractal.WithOctaves(3), fractal.WithPersistence(0.5))

	fmt.Printf("%.4f\n", n.Weights())
	// Output: [0.5714 0.2857 0.1429]
}

func ExampleNoise_EvalGrid() {
	prim, _ := primitive.NewSimplex(2, 1337, primitive.WithRange(0, 1))
	n, _ := fractal.New(prim, fractal.WithOctaves(5))

	xs := []float64{0, 0.25, 0.5, 0.75}
	ys := []float64{0, 0.5}
	grid, err := n.EvalGrid(xs, ys)
	if err != nil {
		panic(err)
	}

	fmt.Println(grid.Shape, len(grid.Data))
	// Output: [2 4] 8
}
