package heightmap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTensor(t *testing.T) {
	grid, err := fractal.NewTensor([]float64{-1, 0, 1, 2, -3, 0.5}, 2, 3)
	require.NoError(t, err)

	img, err := FromTensor(grid, -1, 1)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(128), img.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(2, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(0, 1).Y, "values above hi clamp")
	assert.Equal(t, uint8(0), img.GrayAt(1, 1).Y, "values below lo clamp")
	assert.Equal(t, uint8(191), img.GrayAt(2, 1).Y)
}

func TestFromTensor_Rejects(t *testing.T) {
	_, err := FromTensor(fractal.Tensor{Data: []float64{1, 2}, Shape: []int{2}}, 0, 1)
	assert.Error(t, err)
	_, err = FromTensor(fractal.Tensor{Data: []float64{1}, Shape: []int{2, 2}}, 0, 1)
	assert.Error(t, err)
	_, err = FromTensor(fractal.Tensor{Data: []float64{1}, Shape: []int{1, 1}}, 1, 1)
	assert.Error(t, err)
}

func TestRamp_Gradient(t *testing.T) {
	r := Ramp{
		{At: 0, Color: color.RGBA{R: 0, A: 255}},
		{At: 1, Color: color.RGBA{R: 200, A: 255}},
	}
	grad, err := r.Gradient()
	require.NoError(t, err)

	red := func(v float64) uint8 {
		c, _, _ := grad.At(v).RGB255()
		return c
	}
	assert.Equal(t, uint8(0), red(-1))
	assert.Equal(t, uint8(100), red(0.5))
	assert.Equal(t, uint8(200), red(2))

	var gray Ramp
	grad, err = gray.Gradient()
	require.NoError(t, err)
	c, g, b := grad.At(1).RGB255()
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{c, g, b})

	_, err = Ramp{{At: 0.5}, {At: 0.1}}.Gradient()
	assert.Error(t, err)
}

func TestColorize(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 255})

	out, err := Colorize(gray, TerrainRamp)
	require.NoError(t, err)
	assert.Equal(t, TerrainRamp[0].Color, out.RGBAAt(0, 0))
	assert.Equal(t, TerrainRamp[len(TerrainRamp)-1].Color, out.RGBAAt(1, 0))
}

func TestFilter(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 16, 16))
	gray.SetGray(8, 8, color.Gray{Y: 255})

	assert.Same(t, gray, Filter(gray, FilterOptions{}).(*image.Gray))

	blurred := Filter(gray, FilterOptions{Blur: 2})
	g, ok := blurred.(*image.Gray)
	require.True(t, ok)
	assert.Less(t, g.GrayAt(8, 8).Y, uint8(255))
	assert.Greater(t, g.GrayAt(9, 8).Y, uint8(0))
}

func TestUpscale(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 4))
	assert.Equal(t, image.Rect(0, 0, 16, 8), Upscale(gray, 2).Bounds())
	assert.Equal(t, gray.Bounds(), Upscale(gray, 1).Bounds())
}

func TestStats(t *testing.T) {
	s := Stats([]float64{-1, 0, 1, 2})
	assert.Equal(t, -1.0, s.Min)
	assert.Equal(t, 2.0, s.Max)
	assert.InDelta(t, 0.5, s.Mean, 1e-12)
	assert.Greater(t, s.StdDev, 0.0)

	assert.Equal(t, Summary{}, Stats(nil))
}

func TestEncodePNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for _, c := range []string{"default", "speed", "best", "none"} {
		data, err := EncodePNG(img, c)
		require.NoError(t, err, c)
		decoded, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, img.Bounds(), decoded.Bounds())
	}

	_, err := EncodePNG(img, "fastest")
	assert.Error(t, err)
}
