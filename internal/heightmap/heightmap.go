// Package heightmap turns 2-D noise grids into images.
package heightmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/disintegration/gift"
	"github.com/mazznoer/colorgrad"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FromTensor maps a 2-D grid (shape [rows, cols]) with values in [lo, hi]
// to a grayscale image. Row 0 becomes the top image row.
func FromTensor(t fractal.Tensor, lo, hi float64) (*image.Gray, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("heightmap needs a 2-D grid, got shape %v", t.Shape)
	}
	if len(t.Data) != t.Size() {
		return nil, fmt.Errorf("grid data has %d values for shape %v", len(t.Data), t.Shape)
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("invalid value range [%g,%g]", lo, hi)
	}

	rows, cols := t.Shape[0], t.Shape[1]
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	scale := 255 / (hi - lo)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := (t.Data[y*cols+x] - lo) * scale
			img.Pix[y*img.Stride+x] = uint8(math.Max(0, math.Min(255, math.Round(v))))
		}
	}
	return img, nil
}

// Stop is one colour stop of a Ramp, at a position in [0,1].
type Stop struct {
	At    float64
	Color color.RGBA
}

// Ramp is a colour gradient, stops sorted by At. An empty Ramp is black to
// white.
type Ramp []Stop

// TerrainRamp shades heights as water, beach, grass, rock and snow.
var TerrainRamp = Ramp{
	{At: 0.00, Color: color.RGBA{R: 28, G: 52, B: 110, A: 255}},
	{At: 0.42, Color: color.RGBA{R: 105, G: 160, B: 210, A: 255}},
	{At: 0.47, Color: color.RGBA{R: 218, G: 198, B: 174, A: 255}},
	{At: 0.55, Color: color.RGBA{R: 122, G: 170, B: 120, A: 255}},
	{At: 0.75, Color: color.RGBA{R: 120, G: 110, B: 98, A: 255}},
	{At: 0.90, Color: color.RGBA{R: 244, G: 240, B: 232, A: 255}},
	{At: 1.00, Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}},
}

// Gradient builds the ramp as a linear RGB gradient. Positions outside the
// first and last stop clamp to the end colours.
func (r Ramp) Gradient() (colorgrad.Gradient, error) {
	if len(r) == 0 {
		r = Ramp{{At: 0, Color: color.RGBA{A: 255}}, {At: 1, Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}}}
	}
	if len(r) == 1 {
		r = Ramp{r[0], {At: r[0].At + 1, Color: r[0].Color}}
	}

	colors := make([]color.Color, len(r))
	positions := make([]float64, len(r))
	for i, s := range r {
		if i > 0 && s.At < r[i-1].At {
			return colorgrad.Gradient{}, fmt.Errorf("ramp stops out of order at %d", i)
		}
		colors[i] = s.Color
		positions[i] = s.At
	}
	return colorgrad.NewGradient().
		Colors(colors...).
		Domain(positions...).
		Build()
}

// Colorize shades a grayscale heightmap through a ramp.
func Colorize(gray *image.Gray, ramp Ramp) (*image.RGBA, error) {
	grad, err := ramp.Gradient()
	if err != nil {
		return nil, fmt.Errorf("invalid colour ramp: %w", err)
	}

	var lut [256]color.RGBA
	for i := range lut {
		r, g, b := grad.At(float64(i) / 255).RGB255()
		lut[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}

	bounds := gray.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetRGBA(x, y, lut[gray.GrayAt(x, y).Y])
		}
	}
	return out, nil
}

// FilterOptions configures post-processing. Zero values disable a filter.
type FilterOptions struct {
	Blur     float32 // Gaussian sigma in pixels
	Contrast float32 // percentage, -100..100
}

// Filter applies the configured gift filters to img.
func Filter(img image.Image, opts FilterOptions) image.Image {
	var filters []gift.Filter
	if opts.Blur > 0 {
		filters = append(filters, gift.GaussianBlur(opts.Blur))
	}
	if opts.Contrast != 0 {
		filters = append(filters, gift.Contrast(opts.Contrast))
	}
	if len(filters) == 0 {
		return img
	}

	g := gift.New(filters...)
	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(g.Bounds(img.Bounds()))
	} else {
		dst = image.NewRGBA(g.Bounds(img.Bounds()))
	}
	g.Draw(dst, img)
	return dst
}

// Upscale enlarges img by an integer factor with Catmull-Rom resampling.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Summary describes the distribution of a value set.
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Stats summarises values. An empty input gives a zero Summary.
func Stats(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	return Summary{
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
	}
}

// EncodePNG encodes img with a named compression level
// (default, speed, best, none).
func EncodePNG(img image.Image, compression string) ([]byte, error) {
	level, err := ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCompression maps a compression name to a png level.
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch name {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return 0, fmt.Errorf("invalid png compression %q: must be default, speed, best or none", name)
	}
}
