// Package engine runs the render pipeline: a canonical query is fanned out
// to every section of the listing page, each fragment is loaded through the
// cache and reconciled into the live page as soon as it arrives, and the
// query is committed to browser history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/cache"
	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/history"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
	"github.com/Sternrassler/storefront-facets/pkg/reconcile"
)

var (
	renderCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facets_render_cycles_total",
		Help: "Render cycles started by whether they update history",
	}, []string{"update_history"})

	renderSectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facets_render_sections_total",
		Help: "Section fragments settled by outcome",
	}, []string{"outcome"}) // "applied", "failed", "stale"

	renderCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "facets_render_cycle_duration_seconds",
		Help:    "Time from render start until every section settled",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// ErrNoSections is returned when the live page declares no sections.
var ErrNoSections = errors.New("page declares no sections")

// StalePolicy decides what happens to fragments of superseded renders.
type StalePolicy string

const (
	// ApplyAll reconciles every fragment when it arrives, so a slow
	// response from an older render can overwrite a newer one.
	ApplyAll StalePolicy = "apply-all"

	// LatestOnly drops fragments whose render has been superseded. They
	// are still cached.
	LatestOnly StalePolicy = "latest-only"
)

// Loader loads a fragment by fetch URL.
type Loader interface {
	Load(ctx context.Context, url string) (string, error)
}

// Config holds the engine configuration.
type Config struct {
	// Path is the listing path fragments are requested from.
	Path string `yaml:"path"`

	// SectionSelector matches the elements declaring sections.
	SectionSelector string `yaml:"section_selector"`

	// Stale selects how responses of superseded renders are handled.
	Stale StalePolicy `yaml:"stale"`

	Reconcile reconcile.Config `yaml:"reconcile"`
}

// DefaultConfig returns the default engine configuration for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		SectionSelector: DefaultSectionSelector,
		Stale:           ApplyAll,
		Reconcile:       reconcile.DefaultConfig(),
	}
}

// Engine is the render pipeline for one page view.
type Engine struct {
	page       *dom.Page
	loader     Loader
	history    *history.Controller
	reconciler *reconcile.Reconciler
	sections   []Section
	config     Config
	generation atomic.Uint64
	current    atomic.Pointer[Cycle]
	logger     zerolog.Logger
}

// New creates an engine for page. The section manifest is read once, here.
func New(cfg Config, page *dom.Page, loader Loader, hist *history.Controller) (*Engine, error) {
	if page == nil {
		return nil, fmt.Errorf("page is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if hist == nil {
		return nil, fmt.Errorf("history controller is required")
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.SectionSelector == "" {
		cfg.SectionSelector = DefaultSectionSelector
	}
	switch cfg.Stale {
	case "":
		cfg.Stale = ApplyAll
	case ApplyAll, LatestOnly:
	default:
		return nil, fmt.Errorf("unknown stale policy %q", cfg.Stale)
	}

	var sections []Section
	page.Do(func(d *dom.Doc) {
		sections = ReadSections(d, cfg.SectionSelector)
	})
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w (selector %q)", ErrNoSections, cfg.SectionSelector)
	}

	return &Engine{
		page:       page,
		loader:     loader,
		history:    hist,
		reconciler: reconcile.New(cfg.Reconcile),
		sections:   sections,
		config:     cfg,
		logger:     logging.NewLogger(logging.ComponentEngine),
	}, nil
}

// Page returns the live page.
func (e *Engine) Page() *dom.Page {
	return e.page
}

// History returns the history controller.
func (e *Engine) History() *history.Controller {
	return e.history
}

// Sections returns the section manifest.
func (e *Engine) Sections() []Section {
	return append([]Section(nil), e.sections...)
}

// Current returns the most recently started cycle, nil before the first
// render.
func (e *Engine) Current() *Cycle {
	return e.current.Load()
}

// AddGridHook registers a widget hook run after every grid swap.
func (e *Engine) AddGridHook(hook reconcile.GridHook) {
	e.reconciler.AddGridHook(hook)
}

// ListenHistory replays back/forward navigation through Render without
// pushing new history entries.
func (e *Engine) ListenHistory(ctx context.Context) {
	e.history.OnNavigate(func(query string) {
		e.Render(ctx, query, nil, false)
	})
}

// DisableRemovePills disables every "remove filter" pill until the next
// active-filters reconciliation or the end of the next render.
func (e *Engine) DisableRemovePills() {
	e.page.Do(func(d *dom.Doc) {
		reconcile.SetRemovePillsDisabled(d, true)
	})
}

// Render shows query on the page. Every section is loaded concurrently and
// reconciled as soon as its own fragment settles; nothing is cancelled.
// History is updated synchronously when updateHistory is set. The returned
// cycle settles once every section has. Loading indicators are cleared and
// remove pills re-enabled at settle only if no newer render has started.
func (e *Engine) Render(ctx context.Context, query string, trigger *reconcile.Trigger, updateHistory bool) *Cycle {
	gen := e.generation.Add(1)
	cycle := newCycle(query, updateHistory, gen, len(e.sections))
	e.current.Store(cycle)
	startTime := time.Now()

	e.history.Track(query)
	renderCyclesTotal.WithLabelValues(strconv.FormatBool(updateHistory)).Inc()

	e.page.Do(reconcile.ShowLoading)

	e.logger.Info().
		Str("query", query).
		Uint64("generation", gen).
		Bool("update_history", updateHistory).
		Msg("Render started")

	for _, section := range e.sections {
		url := cache.Key{Path: e.config.Path, SectionID: section.SectionID, Query: query}.URL()
		go e.renderSection(ctx, cycle, section, url, trigger, startTime)
	}

	if updateHistory {
		e.history.Commit(query)
	}

	return cycle
}

func (e *Engine) renderSection(ctx context.Context, cycle *Cycle, section Section, url string, trigger *reconcile.Trigger, startTime time.Time) {
	result := SectionResult{Section: section, URL: url}

	html, err := e.loader.Load(ctx, url)
	switch {
	case err != nil:
		result.Err = err
		renderSectionsTotal.WithLabelValues("failed").Inc()
		e.logger.Warn().Err(err).Str("section", section.SectionID).Str("url", url).Msg("Section fetch failed")
	case e.config.Stale == LatestOnly && cycle.Generation != e.generation.Load():
		result.Stale = true
		renderSectionsTotal.WithLabelValues("stale").Inc()
		e.logger.Debug().Str("section", section.SectionID).Uint64("generation", cycle.Generation).Msg("Dropped stale fragment")
	default:
		e.page.Do(func(d *dom.Doc) {
			result.Report = e.reconciler.Apply(d, html, trigger)
		})
		renderSectionsTotal.WithLabelValues("applied").Inc()
	}

	if !cycle.record(result) {
		return
	}

	// Loading indicators and pill state belong to the newest render. The
	// generation is compared under the page lock, before any newer
	// ShowLoading can run.
	superseded := false
	e.page.Do(func(d *dom.Doc) {
		if cycle.Generation != e.generation.Load() {
			superseded = true
			return
		}
		reconcile.ClearLoading(d)
		reconcile.SetRemovePillsDisabled(d, false)
	})
	renderCycleDuration.Observe(time.Since(startTime).Seconds())
	e.logger.Info().
		Str("query", cycle.Query).
		Uint64("generation", cycle.Generation).
		Bool("superseded", superseded).
		Msg("Render settled")
	cycle.finish()
}
