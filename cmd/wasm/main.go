//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
	"github.com/MeKo-Tech/fractalnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fractalnoise/internal/pipeline"
	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
	"github.com/MeKo-Tech/fractalnoise/internal/tile"
)

// The browser runs everything on one goroutine, so a single instance is enough.
var (
	noise *fractal.Noise
	gen   *pipeline.Generator
)

func defaultParams() mbtiles.NoiseParams {
	return mbtiles.NoiseParams{
		Kind:        primitive.KindSimplex,
		Dims:        2,
		Seed:        1337,
		Octaves:     fractal.DefaultOctaves,
		Persistence: fractal.DefaultPersistence,
		Lacunarity:  fractal.DefaultLacunarity,
		TileSize:    256,
		Scale:       16,
	}
}

func build(p mbtiles.NoiseParams) (*fractal.Noise, error) {
	var opts []primitive.Option
	if p.Range[0] < p.Range[1] {
		opts = append(opts, primitive.WithRange(p.Range[0], p.Range[1]))
	}
	prim, err := primitive.New(p.Kind, p.Dims, p.Seed, opts...)
	if err != nil {
		return nil, err
	}
	return fractal.New(prim,
		fractal.WithOctaves(p.Octaves),
		fractal.WithPersistence(p.Persistence),
		fractal.WithLacunarity(p.Lacunarity),
	)
}

func errorValue(err error) any {
	return map[string]any{"error": err.Error()}
}

// configure takes an optional JSON object with the NoiseParams fields.
func configure(this js.Value, args []js.Value) any {
	p := defaultParams()
	if len(args) > 0 && args[0].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
			return errorValue(fmt.Errorf("failed to parse config: %w", err))
		}
	}

	n, err := build(p)
	if err != nil {
		return errorValue(err)
	}
	noise = n
	gen = nil
	if n.Dims() == 2 {
		g, err := pipeline.NewGenerator(func() (*fractal.Noise, error) { return build(p) },
			pipeline.GeneratorOptions{TileSize: p.TileSize, Scale: p.Scale, Colorize: true, PNGCompression: "speed"}, nil)
		if err != nil {
			return errorValue(err)
		}
		gen = g
	}
	return map[string]any{"status": "ready", "noise": n.String()}
}

// grid evaluates a 2-D grid: grid(x0, x1, y0, y1, width, height) returns a
// Float64Array in row-major order (y rows, x columns).
func grid(this js.Value, args []js.Value) any {
	if noise == nil {
		return errorValue(fmt.Errorf("call fractalnoiseConfigure first"))
	}
	if len(args) < 6 {
		return errorValue(fmt.Errorf("grid needs x0, x1, y0, y1, width, height"))
	}
	w, h := args[4].Int(), args[5].Int()
	if w <= 0 || h <= 0 {
		return errorValue(fmt.Errorf("width and height must be positive"))
	}

	t, err := noise.EvalGrid(axis(args[0].Float(), args[1].Float(), w), axis(args[2].Float(), args[3].Float(), h))
	if err != nil {
		return errorValue(err)
	}

	out := js.Global().Get("Float64Array").New(len(t.Data))
	for i, v := range t.Data {
		out.SetIndex(i, v)
	}
	return out
}

// renderTile returns the PNG bytes of tile z/x/y as a Uint8Array.
func renderTile(this js.Value, args []js.Value) any {
	if gen == nil {
		return errorValue(fmt.Errorf("tiles need 2-D noise"))
	}
	if len(args) < 3 {
		return errorValue(fmt.Errorf("tile needs z, x, y"))
	}
	c := tile.NewCoords(uint32(args[0].Int()), uint32(args[1].Int()), uint32(args[2].Int()))
	data, err := gen.Render(context.Background(), c)
	if err != nil {
		return errorValue(err)
	}

	out := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(out, data)
	return out
}

func axis(lo, hi float64, n int) []float64 {
	a := make([]float64, n)
	step := (hi - lo) / float64(n)
	for i := range a {
		a[i] = lo + (float64(i)+0.5)*step
	}
	return a
}

func main() {
	js.Global().Set("fractalnoiseConfigure", js.FuncOf(configure))
	js.Global().Set("fractalnoiseGrid", js.FuncOf(grid))
	js.Global().Set("fractalnoiseTile", js.FuncOf(renderTile))

	configure(js.Undefined(), nil)
	fmt.Println("fractalnoise WASM module loaded")
	select {}
}
