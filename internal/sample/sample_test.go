package sample

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
)

func sumNoise(t *testing.T, dims int) *fractal.Noise {
	t.Helper()
	prim, err := primitive.NewFunc("sum", dims, primitive.Range{Min: -100, Max: 100},
		func(p []float64) float64 {
			var s float64
			for _, v := range p {
				s += v
			}
			return s
		}, primitive.WithRange(-100, 100))
	require.NoError(t, err)
	n, err := fractal.New(prim, fractal.WithOctaves(1))
	require.NoError(t, err)
	return n
}

func TestRead(t *testing.T) {
	points, err := Read(strings.NewReader("x,y\n1,2\n3.5,-4\n"))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, Point{X: 1, Y: 2}, points[0])
	assert.Equal(t, Point{X: 3.5, Y: -4}, points[1])
}

func TestRead_Empty(t *testing.T) {
	for _, in := range []string{"", "x,y\n"} {
		_, err := Read(strings.NewReader(in))
		assert.True(t, errors.Is(err, ErrNoPoints), "input %q: %v", in, err)
	}
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(strings.NewReader("x,y\n1,abc\n"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	count, err := Run(strings.NewReader("x,y,z\n1,2,99\n0.5,0.25,99\n"), &out, sumNoise(t, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "x,y,z,w,value", lines[0])
	assert.Equal(t, "1,2,99,0,3", lines[1])
	assert.Equal(t, "0.5,0.25,99,0,0.75", lines[2])
}

func TestEvaluate_BadDims(t *testing.T) {
	_, err := Evaluate(sumNoise(t, 2), 5, []Point{{}})
	assert.ErrorIs(t, err, fractal.ErrInvalidShape)
}

func TestEvaluate_Locked(t *testing.T) {
	n := fractal.NewLocked(sumNoise(t, 3))
	samples, err := Evaluate(n, 3, []Point{{X: 1, Y: 1, Z: 1}})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 3.0, samples[0].Value, 1e-12)
}
