package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/fractalnoise/internal/pipeline"
	"github.com/MeKo-Tech/fractalnoise/internal/tile"
)

// OnDemandTilesConfig configures on-demand tile rendering.
type OnDemandTilesConfig struct {
	Factory pipeline.NoiseFactory
	// Generator holds the base render options; TileSize is doubled for @2x.
	Generator pipeline.GeneratorOptions
	// TilesDir caches rendered tiles on disk when set.
	TilesDir                 string
	CacheControl             string
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
	DisableCache             bool
}

// OnDemandTiles renders tiles on request, optionally caching them on disk.
type OnDemandTiles struct {
	logger *slog.Logger
	sem    chan struct{}
	locks  sync.Map
	gens   sync.Map
	cfg    OnDemandTilesConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	cacheHits      atomic.Int64
	currentRenders sync.Map // tile key -> start time
	queuedRenders  atomic.Int32
}

// TileStatus is the JSON body of the status endpoint.
type TileStatus struct {
	Noise           string       `json:"noise"`
	TileSize        int          `json:"tile_size"`
	FolderStructure string       `json:"folder_structure"`
	Render          RenderStatus `json:"render"`
}

// RenderStatus contains current render operation status.
type RenderStatus struct {
	ActiveRenders int      `json:"active_renders"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
	CacheHits     int64    `json:"cache_hits"`
	CurrentTiles  []string `json:"current_tiles"`
	MaxConcurrent int      `json:"max_concurrent"`
	QueuedRenders int      `json:"queued_renders"`
}

// NewOnDemandTiles validates cfg and builds the base-size generator.
func NewOnDemandTiles(cfg OnDemandTilesConfig, logger *slog.Logger) (*OnDemandTiles, error) {
	if cfg.Factory == nil {
		return nil, fmt.Errorf("noise factory is required")
	}
	if cfg.Generator.TileSize <= 0 {
		cfg.Generator.TileSize = 256
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	cfg.Generator.Instances = cfg.MaxConcurrentGenerations

	t := &OnDemandTiles{
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}
	if _, err := t.getGenerator(cfg.Generator.TileSize); err != nil {
		return nil, err
	}
	return t, nil
}

// Status returns the current render status.
func (t *OnDemandTiles) Status() TileStatus {
	var current []string
	t.currentRenders.Range(func(key, _ any) bool {
		current = append(current, key.(string))
		return true
	})
	sort.Strings(current)

	status := TileStatus{}
	if gen, err := t.getGenerator(t.cfg.Generator.TileSize); err == nil {
		opts := gen.Options()
		status.Noise = gen.Describe()
		status.TileSize = opts.TileSize
		status.FolderStructure = opts.FolderStructure
	}

	status.Render = RenderStatus{
		ActiveRenders: int(t.activeRenders.Load()),
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
		CacheHits:     t.cacheHits.Load(),
		CurrentTiles:  current,
		MaxConcurrent: t.cfg.MaxConcurrentGenerations,
		QueuedRenders: int(t.queuedRenders.Load()),
	}
	return status
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (t *OnDemandTiles) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})
}

// StatusStreamHandler pushes the status as Server-Sent Events every interval.
func (t *OnDemandTiles) StatusStreamHandler(interval time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		t.sendStatusEvent(w, flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				t.sendStatusEvent(w, flusher)
			}
		}
	})
}

func (t *OnDemandTiles) sendStatusEvent(w http.ResponseWriter, flusher http.Flusher) {
	data, err := json.Marshal(t.Status())
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// Handler returns the tile handler.
func (t *OnDemandTiles) Handler() http.Handler {
	return http.HandlerFunc(t.serveTile)
}

func (t *OnDemandTiles) serveTile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	coords, suffix, ok := parseTilePath(r.URL.Path)
	if !ok || !coords.Valid() {
		http.NotFound(w, r)
		return
	}

	key := coords.String() + suffix
	cachePath := t.cachePath(coords, suffix)
	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	if t.serveCached(w, r, cachePath) {
		return
	}

	// One render per tile; concurrent requests for it wait and hit the cache.
	mu := t.getLock(key)
	mu.Lock()
	defer mu.Unlock()

	if t.serveCached(w, r, cachePath) {
		return
	}

	t.queuedRenders.Add(1)
	select {
	case t.sem <- struct{}{}:
		t.queuedRenders.Add(-1)
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		t.queuedRenders.Add(-1)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	gen, err := t.getGenerator(tileSizeForSuffix(t.cfg.Generator.TileSize, suffix))
	if err != nil {
		t.log().Error("failed to init generator", "error", err)
		http.Error(w, "failed to init generator", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	t.activeRenders.Add(1)
	t.currentRenders.Store(key, start)
	data, err := gen.Render(ctx, coords)
	t.activeRenders.Add(-1)
	t.currentRenders.Delete(key)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to render tile", "coords", coords.String(), "suffix", suffix, "error", err)
		http.Error(w, fmt.Sprintf("failed to render tile %s: %v", key, err), http.StatusInternalServerError)
		return
	}
	t.totalRendered.Add(1)
	t.log().Info("tile rendered on-demand", "coords", coords.String(), "suffix", suffix, "ms", time.Since(start).Milliseconds())

	if cachePath != "" {
		if _, err := gen.SaveTile(t.cfg.TilesDir, coords, suffix, data); err != nil {
			t.log().Warn("failed to cache tile", "path", cachePath, "error", err)
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		t.log().Error("failed to write response", "error", err)
	}
}

// cachePath uses the same layout as the tiles command, so a pre-rendered
// tileset (including @2x tiles) can serve as the cache.
func (t *OnDemandTiles) cachePath(coords tile.Coords, suffix string) string {
	if t.cfg.TilesDir == "" || t.cfg.DisableCache {
		return ""
	}
	return pipeline.TilePath(t.cfg.TilesDir, t.cfg.Generator.FolderStructure, coords, suffix)
}

func (t *OnDemandTiles) serveCached(w http.ResponseWriter, r *http.Request, p string) bool {
	if p == "" || !fileExists(p) {
		return false
	}
	t.cacheHits.Add(1)
	http.ServeFile(w, r, p)
	return true
}

func (t *OnDemandTiles) getGenerator(tileSize int) (*pipeline.Generator, error) {
	if v, ok := t.gens.Load(tileSize); ok {
		return v.(*pipeline.Generator), nil
	}

	opts := t.cfg.Generator
	opts.TileSize = tileSize
	g, err := pipeline.NewGenerator(t.cfg.Factory, opts, t.logger)
	if err != nil {
		return nil, err
	}

	actual, _ := t.gens.LoadOrStore(tileSize, g)
	return actual.(*pipeline.Generator), nil
}

func (t *OnDemandTiles) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	actual, _ := t.locks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (t *OnDemandTiles) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}
