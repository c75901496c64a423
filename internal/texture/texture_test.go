package texture

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
)

func testParams() Params {
	return Params{
		BaseColor:   color.RGBA{R: 120, G: 120, B: 120, A: 255},
		Variation:   0.8,
		Size:        32,
		Seed:        5,
		Octaves:     3,
		Persistence: fractal.DefaultPersistence,
		Lacunarity:  2,
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(testParams())
	require.NoError(t, err)
	b, err := Generate(testParams())
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestGenerate_VariesAroundBase(t *testing.T) {
	img, err := Generate(testParams())
	require.NoError(t, err)

	lo, hi := uint8(255), uint8(0)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			r := img.RGBAAt(x, y).R
			lo = min(lo, r)
			hi = max(hi, r)
		}
	}
	assert.Less(t, lo, hi, "texture should not be flat")
	// shade stays within 1 +- 0.4 for variation 0.8
	assert.GreaterOrEqual(t, lo, uint8(72))
	assert.LessOrEqual(t, hi, uint8(168))
}

func TestGenerate_Errors(t *testing.T) {
	p := testParams()
	p.Lacunarity = 2.5
	_, err := Generate(p)
	assert.ErrorIs(t, err, ErrNotSeamless)

	p = testParams()
	p.Size = 0
	_, err = Generate(p)
	assert.Error(t, err)

	p = testParams()
	p.Octaves = 0
	_, err = Generate(p)
	assert.ErrorIs(t, err, fractal.ErrInvalidParameter)
}

func TestWriteDefaultTextures(t *testing.T) {
	dir := t.TempDir()

	res, err := WriteDefaultTextures(dir, testParams(), 1, false)
	require.NoError(t, err)
	assert.Len(t, res.Written, len(DefaultSet))
	assert.Empty(t, res.Skipped)
	for _, def := range DefaultSet {
		_, err := os.Stat(filepath.Join(dir, def.Name+".png"))
		assert.NoError(t, err)
	}

	res, err = WriteDefaultTextures(dir, testParams(), 1, false)
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.Len(t, res.Skipped, len(DefaultSet))

	res, err = WriteDefaultTextures(dir, testParams(), 0.5, true)
	require.NoError(t, err)
	assert.Len(t, res.Written, len(DefaultSet))
}
