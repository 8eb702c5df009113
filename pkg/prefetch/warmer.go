package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/logging"
)

var prefetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "facets_prefetch_total",
	Help: "Fragments warmed by outcome",
}, []string{"outcome"}) // "loaded", "failed", "cancelled"

// Config holds warmer configuration.
type Config struct {
	// MaxConcurrency is the number of parallel loads.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Timeout bounds a single load.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default warmer configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// Loader loads a fragment through the cache.
type Loader interface {
	Load(ctx context.Context, url string) (string, error)
}

// Result is the outcome of warming one URL.
type Result struct {
	URL string
	Err error
}

// Warmer loads fragment URLs with a bounded worker pool.
type Warmer struct {
	loader Loader
	config Config
	logger zerolog.Logger
}

// New creates a warmer.
func New(loader Loader, cfg Config) *Warmer {
	if loader == nil {
		panic("loader cannot be nil")
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Warmer{
		loader: loader,
		config: cfg,
		logger: logging.NewLogger(logging.ComponentPrefetch),
	}
}

// Warm loads every URL once. Results are in input order. Failed loads do
// not stop the others; the returned error joins them. If ctx is cancelled
// the remaining URLs are reported with the context error.
func (w *Warmer) Warm(ctx context.Context, urls []string) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(urls))
	for i, u := range urls {
		results[i].URL = u
	}
	if len(urls) == 0 {
		return results, nil
	}

	queue := make(chan int, len(urls))
	for i := range urls {
		queue <- i
	}
	close(queue)

	workers := w.config.MaxConcurrency
	if workers > len(urls) {
		workers = len(urls)
	}

	var wg sync.WaitGroup
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go w.worker(ctx, id, queue, results, &wg)
	}
	wg.Wait()

	var errs []error
	loaded := 0
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.URL, r.Err))
			continue
		}
		loaded++
	}

	w.logger.Info().
		Int("urls", len(urls)).
		Int("loaded", loaded).
		Int("workers", workers).
		Dur("duration", time.Since(start)).
		Msg("Warm complete")

	if len(errs) > 0 {
		return results, fmt.Errorf("warmed %d/%d fragments: %w", loaded, len(urls), errors.Join(errs...))
	}
	return results, nil
}

// worker loads URLs from the queue. Each index is written by exactly one
// worker.
func (w *Warmer) worker(ctx context.Context, id int, queue <-chan int, results []Result, wg *sync.WaitGroup) {
	defer wg.Done()
	processed := 0

	for i := range queue {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			prefetchTotal.WithLabelValues("cancelled").Inc()
			continue
		}

		loadCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		_, err := w.loader.Load(loadCtx, results[i].URL)
		cancel()

		if err != nil {
			results[i].Err = err
			prefetchTotal.WithLabelValues("failed").Inc()
			w.logger.Warn().Err(err).Int("worker_id", id).Str("url", results[i].URL).Msg("Prefetch failed")
			continue
		}
		prefetchTotal.WithLabelValues("loaded").Inc()
		processed++
	}

	if processed > 0 {
		w.logger.Debug().Int("worker_id", id).Int("processed", processed).Msg("Worker completed")
	}
}
