package cmd

import (
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/fractalnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fractalnoise/internal/tile"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert folder tiles to MBTiles format",
	Long: `Convert a tile folder written by the tiles command (flat or nested
layout) into an MBTiles database. @2x tiles go to a sibling <output>@2x.mbtiles.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("input-dir", "", "Input directory containing tiles (default: <output-dir>)")
	convertCmd.Flags().StringP("output", "o", "", "Output MBTiles file path (required)")
	convertCmd.Flags().String("name", "fractalnoise", "Tileset name")
	convertCmd.Flags().String("description", "", "Tileset description (default: the noise description or a generic one)")
	convertCmd.Flags().String("bounds", "world", "Bounding box: minLon,minLat,maxLon,maxLat or \"world\"")
	convertCmd.Flags().Bool("noise-params", false, "Record the noise.* configuration in the tileset metadata")
	convertCmd.Flags().Float64("scale", 16, "Noise-space extent the tiles were rendered with (recorded with --noise-params)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"convert.input_dir", "input-dir"},
		{"convert.output", "output"},
		{"convert.name", "name"},
		{"convert.description", "description"},
		{"convert.bounds", "bounds"},
		{"convert.noise_params", "noise-params"},
		{"convert.scale", "scale"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, convertCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

var (
	flatTilePattern   = regexp.MustCompile(`^z(\d+)_x(\d+)_y(\d+)(@2x)?\.png$`)
	nestedTilePattern = regexp.MustCompile(`^(\d+)/(\d+)/(\d+)(@2x)?\.png$`)
)

type tileFile struct {
	coords tile.Coords
	path   string
}

func runConvert(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	inputDir := viper.GetString("convert.input_dir")
	if inputDir == "" {
		inputDir = viper.GetString("output-dir")
	}
	outputFile := viper.GetString("convert.output")
	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	bounds, err := tile.ParseBBox(viper.GetString("convert.bounds"))
	if err != nil {
		return fmt.Errorf("invalid bounds: %w", err)
	}

	logger.Info("Converting folder tiles to MBTiles", "input_dir", inputDir, "output", outputFile)

	sets, err := scanTilesDirectory(inputDir)
	if err != nil {
		return fmt.Errorf("failed to scan tiles directory: %w", err)
	}
	if len(sets) == 0 {
		return fmt.Errorf("no tiles found in %s", inputDir)
	}

	suffixes := make([]string, 0, len(sets))
	for suffix := range sets {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)

	for _, suffix := range suffixes {
		files := sets[suffix]
		meta := mbtiles.Metadata{
			Name:        viper.GetString("convert.name"),
			Format:      "png",
			Bounds:      bounds,
			Description: viper.GetString("convert.description"),
			Type:        "baselayer",
			Version:     "1.0",
		}
		if viper.GetBool("convert.noise_params") {
			if err := attachNoiseParams(&meta, files[0].path); err != nil {
				return err
			}
		}
		if meta.Description == "" {
			meta.Description = "Fractal noise tiles"
		}

		path := outputFile
		if suffix != "" {
			path = strings.TrimSuffix(outputFile, ".mbtiles") + suffix + ".mbtiles"
		}
		written, err := convertTileset(path, meta, files)
		if err != nil {
			return err
		}
		logger.Info("Conversion complete", "output", path, "suffix", suffix, "tiles", written)
	}
	return nil
}

// attachNoiseParams fills meta.Noise from the noise.* configuration. The
// tile size is read from the PNG header of sample.
func attachNoiseParams(meta *mbtiles.Metadata, sample string) error {
	n, err := buildNoise()
	if err != nil {
		return err
	}
	size, err := pngWidth(sample)
	if err != nil {
		return fmt.Errorf("failed to read tile size from %s: %w", sample, err)
	}
	meta.Noise = noiseConfigFromViper().params(n, size, viper.GetFloat64("convert.scale"))
	if meta.Description == "" {
		meta.Description = n.String()
	}
	return nil
}

// convertTileset writes files into a new MBTiles database at path. Unreadable
// tiles are logged and skipped. Returns the number of tiles written.
func convertTileset(path string, meta mbtiles.Metadata, files []tileFile) (int, error) {
	meta.MinZoom, meta.MaxZoom = int(files[0].coords.Z), int(files[0].coords.Z)
	for _, f := range files[1:] {
		meta.MinZoom = min(meta.MinZoom, int(f.coords.Z))
		meta.MaxZoom = max(meta.MaxZoom, int(f.coords.Z))
	}

	writer, err := mbtiles.New(path, meta)
	if err != nil {
		return 0, fmt.Errorf("failed to create MBTiles writer: %w", err)
	}
	defer writer.Close()

	for i, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			logger.Error("Failed to read tile", "path", f.path, "error", err)
			continue
		}
		if err := writer.WriteTile(f.coords, data); err != nil {
			logger.Error("Failed to write tile", "coords", f.coords.String(), "error", err)
			continue
		}
		if (i+1)%100 == 0 {
			logger.Info("Progress", "converted", i+1, "total", len(files))
		}
	}

	if err := writer.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush tiles: %w", err)
	}
	return writer.Written(), nil
}

// scanTilesDirectory finds tiles in the flat (z{z}_x{x}_y{y}.png) and nested
// ({z}/{x}/{y}.png) layouts, grouped by suffix ("" or "@2x") and sorted by
// path.
func scanTilesDirectory(dir string) (map[string][]tileFile, error) {
	sets := make(map[string][]tileFile)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		m := flatTilePattern.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			m = nestedTilePattern.FindStringSubmatch(rel)
		}
		if m == nil {
			return nil
		}

		coords, ok := coordsFromMatch(m[1], m[2], m[3])
		if !ok {
			logger.Warn("Skipping tile with invalid coordinates", "path", path)
			return nil
		}
		sets[m[4]] = append(sets[m[4]], tileFile{coords: coords, path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

func coordsFromMatch(zs, xs, ys string) (tile.Coords, bool) {
	var v [3]uint32
	for i, s := range []string{zs, xs, ys} {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return tile.Coords{}, false
		}
		v[i] = uint32(n)
	}
	c := tile.NewCoords(v[0], v[1], v[2])
	return c, c.Valid()
}

func pngWidth(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, err
	}
	return cfg.Width, nil
}
