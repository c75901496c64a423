// Package worker provides a parallel tile rendering worker pool.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/fractalnoise/internal/tile"
)

// Renderer is the interface for tile rendering.
// This matches the signature of pipeline.Generator.Render.
type Renderer interface {
	Render(ctx context.Context, coords tile.Coords) ([]byte, error)
}

// Task represents a single tile rendering task.
type Task struct {
	Coords tile.Coords
}

// Result represents the outcome of a tile rendering task.
type Result struct {
	Task    Task
	Data    []byte
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// ResultFunc receives every result as soon as it is available, from the
// collector goroutine only.
type ResultFunc func(Result)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Renderer   Renderer
	OnProgress ProgressFunc
	OnResult   ResultFunc
}

// Pool manages parallel tile rendering.
type Pool struct {
	workers    int
	renderer   Renderer
	onProgress ProgressFunc
	onResult   ResultFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		onProgress: cfg.OnProgress,
		onResult:   cfg.OnResult,
	}
}

// Run executes all tasks and returns results.
// Tasks are processed in parallel by the configured number of workers.
// The function blocks until all tasks complete or the context is cancelled.
// When OnResult is set, tile data is handed to it and dropped from the
// returned results to keep memory bounded.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var (
		completed int
		failed    int
		mu        sync.Mutex
	)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			if p.onResult != nil {
				p.onResult(result)
				result.Data = nil
			}
			results = append(results, result)

			mu.Lock()
			completed++
			if result.Err != nil {
				failed++
			}
			c, f := completed, failed
			mu.Unlock()

			if p.onProgress != nil {
				p.onProgress(c, len(tasks), f)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- Result{
				Task: task,
				Err:  ctx.Err(),
			}
			continue
		default:
		}

		start := time.Now()
		data, err := p.renderer.Render(ctx, task.Coords)
		results <- Result{
			Task:    task,
			Data:    data,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
