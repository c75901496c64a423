package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/fractalnoise/internal/heightmap"
	"github.com/MeKo-Tech/fractalnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fractalnoise/internal/pipeline"
	"github.com/MeKo-Tech/fractalnoise/internal/tile"
	"github.com/MeKo-Tech/fractalnoise/internal/worker"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Render a noise tileset",
	Long: `Render 2-D fractal noise as web map tiles for a bounding box and zoom range.

The whole world spans [0,scale) in noise space on both axes at every zoom,
so neighbouring tiles and zoom levels line up. Output is a folder of PNGs
or a single MBTiles database.`,
	RunE: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().String("tile", "", "Render a single tile (e.g. z3_x1_y2) instead of a bbox")
	tilesCmd.Flags().String("bbox", "world", "Bounding box: minLon,minLat,maxLon,maxLat or \"world\"")
	tilesCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	tilesCmd.Flags().Int("zoom-max", 3, "Maximum zoom level")
	tilesCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	tilesCmd.Flags().Bool("progress", true, "Show progress bar")
	tilesCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some tiles fail")

	tilesCmd.Flags().Bool("force", false, "Re-render tiles that already exist (folder format)")
	tilesCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	tilesCmd.Flags().Float64("scale", 16, "Noise-space extent of the whole world")
	tilesCmd.Flags().Bool("hidpi", false, "Also render @2x tiles")
	tilesCmd.Flags().Bool("colorize", true, "Map heights through the terrain colour ramp")
	tilesCmd.Flags().Float32("blur", 0, "Gaussian blur sigma in pixels")
	tilesCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	tilesCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	tilesCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., noise.mbtiles)")
	tilesCmd.Flags().String("folder-structure", "flat", "Folder layout: flat (z{z}_x{x}_y{y}.png) or nested ({z}/{x}/{y}.png)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"tiles.tile", "tile"},
		{"tiles.bbox", "bbox"},
		{"tiles.zoom_min", "zoom-min"},
		{"tiles.zoom_max", "zoom-max"},
		{"tiles.workers", "workers"},
		{"tiles.progress", "progress"},
		{"tiles.allow_failures", "allow-failures"},
		{"tiles.force", "force"},
		{"tiles.tile_size", "tile-size"},
		{"tiles.scale", "scale"},
		{"tiles.hidpi", "hidpi"},
		{"tiles.colorize", "colorize"},
		{"tiles.blur", "blur"},
		{"tiles.png_compression", "png-compression"},
		{"tiles.format", "format"},
		{"tiles.output_file", "output-file"},
		{"tiles.folder_structure", "folder-structure"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, tilesCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

type tileSet struct {
	label  string
	suffix string
	size   int
}

// tileJob is one tile size of a tiles run.
type tileJob struct {
	label  string
	suffix string
	gen    *pipeline.Generator
	writer *mbtiles.Writer
	dir    string
	tiles  []tile.Coords
}

func runTiles(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	format := viper.GetString("tiles.format")
	outputFile := viper.GetString("tiles.output_file")
	outputDir := viper.GetString("output-dir")
	workers := viper.GetInt("tiles.workers")
	tileSize := viper.GetInt("tiles.tile_size")
	scale := viper.GetFloat64("tiles.scale")
	force := viper.GetBool("tiles.force")

	if format != "folder" && format != "mbtiles" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'mbtiles'", format)
	}
	if format == "mbtiles" && outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=mbtiles")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tiles, bbox, zoomMin, zoomMax, err := selectTiles()
	if err != nil {
		return err
	}

	nc := noiseConfigFromViper()
	// Workers already run in parallel; keep each noise instance sequential.
	nc.Parallelism = 1

	opts := pipeline.GeneratorOptions{
		TileSize:        tileSize,
		Scale:           scale,
		Instances:       workers,
		Colorize:        viper.GetBool("tiles.colorize"),
		Filter:          heightmap.FilterOptions{Blur: float32(viper.GetFloat64("tiles.blur"))},
		PNGCompression:  viper.GetString("tiles.png_compression"),
		FolderStructure: viper.GetString("tiles.folder_structure"),
	}

	sizes := []tileSet{{"base", "", tileSize}}
	if viper.GetBool("tiles.hidpi") {
		sizes = append(sizes, tileSet{"hidpi", "@2x", tileSize * 2})
	}

	var jobs []tileJob
	for _, s := range sizes {
		o := opts
		o.TileSize = s.size
		gen, err := pipeline.NewGenerator(nc.factory(), o, logger)
		if err != nil {
			return fmt.Errorf("failed to init %s generator: %w", s.label, err)
		}
		job := tileJob{label: s.label, suffix: s.suffix, gen: gen, tiles: tiles}

		if format == "mbtiles" {
			n, err := nc.build()
			if err != nil {
				return err
			}
			path := outputFile
			if s.suffix != "" {
				path = strings.TrimSuffix(outputFile, ".mbtiles") + s.suffix + ".mbtiles"
			}
			job.writer, err = mbtiles.New(path, mbtiles.Metadata{
				Name:        "fractalnoise",
				Format:      "png",
				MinZoom:     zoomMin,
				MaxZoom:     zoomMax,
				Bounds:      bbox,
				Description: gen.Describe(),
				Type:        "baselayer",
				Version:     "1.0",
				Noise:       nc.params(n, s.size, scale),
			})
			if err != nil {
				return fmt.Errorf("failed to create MBTiles writer: %w", err)
			}
			defer job.writer.Close()
		} else {
			job.dir = outputDir
			job.tiles = pendingTiles(gen, outputDir, s.suffix, tiles, force)
		}
		jobs = append(jobs, job)
	}

	logger.Info("Starting tile rendering",
		"noise", jobs[0].gen.Describe(),
		"zoom_range", fmt.Sprintf("%d-%d", zoomMin, zoomMax),
		"tiles", len(tiles),
		"workers", workers,
		"format", format,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	allowFailures := viper.GetBool("tiles.allow_failures")
	for _, job := range jobs {
		failed, err := renderTileJob(ctx, job, workers)
		if err != nil {
			return err
		}
		if failed > 0 {
			if !allowFailures {
				return fmt.Errorf("%d %s tiles failed to render", failed, job.label)
			}
			logger.Warn("Some tiles failed to render, continuing due to --allow-failures", "set", job.label, "failed_count", failed)
		}
		if job.writer != nil {
			if err := job.writer.Flush(); err != nil {
				return fmt.Errorf("failed to flush MBTiles: %w", err)
			}
			logger.Info("MBTiles written", "set", job.label, "tiles", job.writer.Written())
		}
	}
	return ctx.Err()
}

func renderTileJob(ctx context.Context, job tileJob, workers int) (int, error) {
	tasks := make([]worker.Task, len(job.tiles))
	for i, c := range job.tiles {
		tasks[i] = worker.Task{Coords: c}
	}
	if len(tasks) == 0 {
		logger.Info("Nothing to render", "set", job.label)
		return 0, nil
	}

	progress := worker.NewProgress(len(tasks), viper.GetBool("tiles.progress"))
	var sinkErr error
	pool := worker.New(worker.Config{
		Workers:    workers,
		Renderer:   job.gen,
		OnProgress: progress.Callback(),
		OnResult: func(res worker.Result) {
			if res.Err != nil || sinkErr != nil {
				return
			}
			progress.AddBytes(len(res.Data))
			if job.writer != nil {
				sinkErr = job.writer.WriteTile(res.Task.Coords, res.Data)
				return
			}
			_, sinkErr = job.gen.SaveTile(job.dir, res.Task.Coords, job.suffix, res.Data)
		},
	})

	logger.Info("Rendering tiles", "set", job.label, "count", len(tasks))
	results := pool.Run(ctx, tasks)
	progress.Done()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("Tile rendering failed", "coords", r.Task.Coords.String(), "error", r.Err)
		}
	}
	logger.Info(progress.Summary())

	if sinkErr != nil {
		return failed, fmt.Errorf("failed to store tile: %w", sinkErr)
	}
	return failed, nil
}

// selectTiles resolves --tile or --bbox/--zoom-min/--zoom-max.
func selectTiles() ([]tile.Coords, [4]float64, int, int, error) {
	if single := viper.GetString("tiles.tile"); single != "" {
		c, err := tile.ParseCoords(single)
		if err != nil {
			return nil, [4]float64{}, 0, 0, err
		}
		z := int(c.Z)
		return []tile.Coords{c}, c.Bounds(), z, z, nil
	}

	bbox, err := tile.ParseBBox(viper.GetString("tiles.bbox"))
	if err != nil {
		return nil, [4]float64{}, 0, 0, fmt.Errorf("invalid bbox: %w", err)
	}
	zoomMin := viper.GetInt("tiles.zoom_min")
	zoomMax := viper.GetInt("tiles.zoom_max")
	if zoomMin < 0 || zoomMax > 30 {
		return nil, [4]float64{}, 0, 0, fmt.Errorf("zoom levels must be within 0-30")
	}
	if zoomMin > zoomMax {
		return nil, [4]float64{}, 0, 0, fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", zoomMin, zoomMax)
	}
	return tile.TilesInBBox(bbox, zoomMin, zoomMax), bbox, zoomMin, zoomMax, nil
}

// pendingTiles drops tiles that already exist on disk unless force is set.
func pendingTiles(gen *pipeline.Generator, dir, suffix string, tiles []tile.Coords, force bool) []tile.Coords {
	if force {
		return tiles
	}
	pending := make([]tile.Coords, 0, len(tiles))
	for _, c := range tiles {
		if gen.TileExists(dir, c, suffix) {
			continue
		}
		pending = append(pending, c)
	}
	if skipped := len(tiles) - len(pending); skipped > 0 {
		logger.Info("Skipping existing tiles", "dir", dir, "suffix", suffix, "skipped", skipped)
	}
	return pending
}
