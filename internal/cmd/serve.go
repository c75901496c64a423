package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/fractalnoise/internal/heightmap"
	"github.com/MeKo-Tech/fractalnoise/internal/pipeline"
	"github.com/MeKo-Tech/fractalnoise/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve noise tiles over HTTP",
	Long: `Serve tiles at /tiles/z{z}_x{x}_y{y}.png, either from an MBTiles database
(--mbtiles) or rendered on demand from the noise.* configuration.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("mbtiles", "", "Serve tiles from this MBTiles file instead of rendering")
	serveCmd.Flags().String("tiles-dir", "", "Cache rendered tiles in this directory (empty disables the disk cache)")
	serveCmd.Flags().String("folder-structure", "flat", "Layout of --tiles-dir, as written by the tiles command: flat or nested")
	serveCmd.Flags().Bool("disable-cache", false, "Always re-render tiles")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent tile renders")
	serveCmd.Flags().Duration("generation-timeout", 30*time.Second, "Timeout per tile render")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for rendered tiles")

	serveCmd.Flags().Int("tile-size", 256, "Base tile size in pixels (@2x requests render double)")
	serveCmd.Flags().Float64("scale", 16, "Noise-space extent of the whole world")
	serveCmd.Flags().Bool("colorize", true, "Map heights through the terrain colour ramp")
	serveCmd.Flags().String("png-compression", "speed", "PNG compression (default, speed, best, none)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"serve.addr", "addr"},
		{"serve.mbtiles", "mbtiles"},
		{"serve.tiles_dir", "tiles-dir"},
		{"serve.folder_structure", "folder-structure"},
		{"serve.disable_cache", "disable-cache"},
		{"serve.max_concurrent_generations", "max-concurrent-generations"},
		{"serve.generation_timeout", "generation-timeout"},
		{"serve.cache_control", "cache-control"},
		{"serve.tile_size", "tile-size"},
		{"serve.scale", "scale"},
		{"serve.colorize", "colorize"},
		{"serve.png_compression", "png-compression"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, serveCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet, http.MethodHead)

	if path := viper.GetString("serve.mbtiles"); path != "" {
		h, err := server.NewMBTilesHandler(server.MBTilesConfig{MBTilesPath: path}, logger)
		if err != nil {
			return err
		}
		defer h.Close()

		meta, err := h.Metadata()
		if err != nil {
			return err
		}
		router.PathPrefix("/tiles/").Handler(h.Handler())
		logger.Info("Serving MBTiles", "path", path, "name", meta.Name, "zoom", fmt.Sprintf("%d-%d", meta.MinZoom, meta.MaxZoom))
	} else {
		nc := noiseConfigFromViper()
		nc.Parallelism = 1
		maxConc := viper.GetInt("serve.max_concurrent_generations")

		od, err := server.NewOnDemandTiles(server.OnDemandTilesConfig{
			Factory: nc.factory(),
			Generator: pipeline.GeneratorOptions{
				TileSize:        viper.GetInt("serve.tile_size"),
				Scale:           viper.GetFloat64("serve.scale"),
				Colorize:        viper.GetBool("serve.colorize"),
				PNGCompression:  viper.GetString("serve.png_compression"),
				FolderStructure: viper.GetString("serve.folder_structure"),
				Filter:          heightmap.FilterOptions{},
			},
			TilesDir:                 viper.GetString("serve.tiles_dir"),
			DisableCache:             viper.GetBool("serve.disable_cache"),
			MaxConcurrentGenerations: maxConc,
			GenerationTimeout:        viper.GetDuration("serve.generation_timeout"),
			CacheControl:             viper.GetString("serve.cache_control"),
		}, logger)
		if err != nil {
			return err
		}

		router.PathPrefix("/tiles/").Handler(od.Handler())
		router.Handle("/status", od.StatusHandler()).Methods(http.MethodGet)
		router.Handle("/status/stream", od.StatusStreamHandler(250*time.Millisecond)).Methods(http.MethodGet)
		logger.Info("Rendering tiles on demand", "noise", od.Status().Noise, "max_concurrent_generations", maxConc)
	}

	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Tile server listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
