// Package sample evaluates fractal noise at points read from CSV.
package sample

import (
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/MeKo-Tech/fractalnoise/internal/fractal"
)

// ErrNoPoints is returned for an input without data rows.
var ErrNoPoints = errors.New("sample: no points")

// Point is one input row. Columns beyond the noise dimensionality are ignored
// and missing columns read as zero.
type Point struct {
	X float64 `csv:"x"`
	Y float64 `csv:"y"`
	Z float64 `csv:"z"`
	W float64 `csv:"w"`
}

func (p Point) coords(dims int) []float64 {
	return []float64{p.X, p.Y, p.Z, p.W}[:dims]
}

// Sample is one output row.
type Sample struct {
	Point
	Value float64 `csv:"value"`
}

// Evaluator is the subset of *fractal.Noise and *fractal.Locked used here.
type Evaluator interface {
	EvalPoints(points [][]float64) ([]float64, error)
}

// Read parses points from CSV with a header row.
func Read(r io.Reader) ([]Point, error) {
	var rows []*Point
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, ErrNoPoints
		}
		return nil, fmt.Errorf("failed to parse points: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoPoints
	}

	points := make([]Point, len(rows))
	for i, p := range rows {
		points[i] = *p
	}
	return points, nil
}

// Evaluate runs all points through the noise as a single batch.
func Evaluate(n Evaluator, dims int, points []Point) ([]Sample, error) {
	if dims < 1 || dims > 4 {
		return nil, fmt.Errorf("%w: cannot sample %d-D noise from x,y,z,w columns", fractal.ErrInvalidShape, dims)
	}

	batch := make([][]float64, len(points))
	for i, p := range points {
		batch[i] = p.coords(dims)
	}
	values, err := n.EvalPoints(batch)
	if err != nil {
		return nil, err
	}

	out := make([]Sample, len(points))
	for i, p := range points {
		out[i] = Sample{Point: p, Value: values[i]}
	}
	return out, nil
}

// Write encodes samples as CSV with a header row.
func Write(w io.Writer, samples []Sample) error {
	if err := gocsv.Marshal(samples, w); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// Run reads points from r, evaluates them with n and writes samples to w.
func Run(r io.Reader, w io.Writer, n *fractal.Noise) (int, error) {
	points, err := Read(r)
	if err != nil {
		return 0, err
	}
	samples, err := Evaluate(n, n.Dims(), points)
	if err != nil {
		return 0, err
	}
	return len(samples), Write(w, samples)
}
