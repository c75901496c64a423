package tile

import (
	"math"
	"testing"
)

func TestCoordsString(t *testing.T) {
	tests := []struct {
		coords   Coords
		expected string
	}{
		{Coords{Z: 13, X: 4297, Y: 2754}, "z13_x4297_y2754"},
		{Coords{Z: 0, X: 0, Y: 0}, "z0_x0_y0"},
		{Coords{Z: 18, X: 12345, Y: 67890}, "z18_x12345_y67890"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.coords.String()
			if result != tt.expected {
				t.Errorf("String() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestCoordsPath(t *testing.T) {
	coords := Coords{Z: 13, X: 4297, Y: 2754}
	if got := coords.Path("", "png"); got != "z13_x4297_y2754.png" {
		t.Errorf("Path(png) = %s", got)
	}
	if got := coords.Path("@2x", "png"); got != "z13_x4297_y2754@2x.png" {
		t.Errorf("Path(@2x, png) = %s", got)
	}
}

func TestCoordsBounds(t *testing.T) {
	coords := Coords{Z: 13, X: 4297, Y: 2754}
	bounds := coords.Bounds()

	if bounds[0] >= bounds[2] {
		t.Errorf("minLon >= maxLon: %.6f >= %.6f", bounds[0], bounds[2])
	}
	if bounds[1] >= bounds[3] {
		t.Errorf("minLat >= maxLat: %.6f >= %.6f", bounds[1], bounds[3])
	}
}

func TestParseCoords(t *testing.T) {
	tests := []struct {
		input    string
		expected Coords
		wantErr  bool
	}{
		{"z13_x4297_y2754", Coords{Z: 13, X: 4297, Y: 2754}, false},
		{"z0_x0_y0", Coords{Z: 0, X: 0, Y: 0}, false},
		{"z18_x262143_y262143", Coords{Z: 18, X: 262143, Y: 262143}, false},
		{"z2_x4_y0", Coords{}, true},
		{"invalid", Coords{}, true},
		{"z13_x4297", Coords{}, true},
		{"13_4297_2754", Coords{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseCoords(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCoords(%s) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoords(%s) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseCoords(%s) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestAxes_PixelCentres(t *testing.T) {
	xs, ys := NewCoords(0, 0, 0).Axes(4, 8)

	want := []float64{1, 3, 5, 7}
	for i := range want {
		if math.Abs(xs[i]-want[i]) > 1e-12 || math.Abs(ys[i]-want[i]) > 1e-12 {
			t.Fatalf("Axes()[%d] = (%v, %v), want %v", i, xs[i], ys[i], want[i])
		}
	}
}

func TestAxes_NeighboursAreContinuous(t *testing.T) {
	const size = 16
	left, _ := NewCoords(5, 10, 7).Axes(size, 4)
	right, _ := NewCoords(5, 11, 7).Axes(size, 4)

	step := left[1] - left[0]
	gap := right[0] - left[size-1]
	if math.Abs(gap-step) > 1e-12 {
		t.Errorf("gap between tiles %v, want pixel step %v", gap, step)
	}
}

func TestAxes_ChildrenSubdivideParent(t *testing.T) {
	parentXs, _ := NewCoords(3, 2, 5).Axes(8, 1)
	childXs, _ := NewCoords(4, 4, 10).Axes(8, 1)

	step := parentXs[1] - parentXs[0]
	leftEdge := parentXs[0] - step/2
	middle := leftEdge + 4*step

	// child 4 covers the left half of parent 2
	if childXs[0] <= leftEdge || childXs[7] >= middle {
		t.Errorf("child axis %v not inside [%v, %v)", childXs, leftEdge, middle)
	}
}

func TestTilesInBBox(t *testing.T) {
	bbox := [4]float64{9.7, 52.3, 9.9, 52.4}

	tiles := TilesInBBox(bbox, 10, 12)
	if len(tiles) != TileCount(bbox, 10, 12) {
		t.Fatalf("TilesInBBox returned %d tiles, TileCount says %d", len(tiles), TileCount(bbox, 10, 12))
	}

	seen := map[Coords]bool{}
	for _, c := range tiles {
		if seen[c] {
			t.Fatalf("duplicate tile %s", c)
		}
		seen[c] = true
		if c.Z < 10 || c.Z > 12 || !c.Valid() {
			t.Errorf("unexpected tile %s", c)
		}
	}
}

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [4]float64
		wantErr bool
	}{
		{name: "valid bbox", input: "9.7,52.3,9.9,52.4", want: [4]float64{9.7, 52.3, 9.9, 52.4}},
		{name: "valid bbox with spaces", input: "9.7, 52.3, 9.9, 52.4", want: [4]float64{9.7, 52.3, 9.9, 52.4}},
		{name: "negative coordinates", input: "-122.5,37.7,-122.3,37.9", want: [4]float64{-122.5, 37.7, -122.3, 37.9}},
		{name: "world", input: "World", want: WorldBBox},
		{name: "too few values", input: "9.7,52.3,9.9", wantErr: true},
		{name: "too many values", input: "9.7,52.3,9.9,52.4,10.0", wantErr: true},
		{name: "invalid number", input: "abc,52.3,9.9,52.4", wantErr: true},
		{name: "minLon >= maxLon", input: "10.0,52.3,9.9,52.4", wantErr: true},
		{name: "minLat >= maxLat", input: "9.7,52.5,9.9,52.4", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBBox(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBBox(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseBBox(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseBBox(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
