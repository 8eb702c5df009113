// Package form binds the filter forms to the render pipeline: a debounced
// state machine per filter surface and the removable active-filter pills.
package form

import (
	"context"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/engine"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
	"github.com/Sternrassler/storefront-facets/pkg/query"
	"github.com/Sternrassler/storefront-facets/pkg/reconcile"
)

// Form ids of the filter surfaces.
const (
	FiltersFormID    = "FacetFiltersForm"
	MobileFormID     = "FacetFiltersFormMobile"
	SortFormID       = "FacetSortForm"
	SortDrawerFormID = "FacetSortDrawerForm"

	// FormsSelector matches every filter surface form in document order.
	FormsSelector = "facet-filters-form form"
)

// DefaultDebounce is the quiet period after the last input before a render.
const DefaultDebounce = 500 * time.Millisecond

// Renderer is the part of the engine the filter surfaces drive.
type Renderer interface {
	Render(ctx context.Context, query string, trigger *reconcile.Trigger, updateHistory bool) *engine.Cycle
	DisableRemovePills()
	Page() *dom.Page
}

// InputEvent describes one change on a field of the bound form.
type InputEvent struct {
	// FacetID is the id of the facet element containing the field, empty
	// for fields outside a facet (sort select).
	FacetID string

	// TextInput is set for free-text fields.
	TextInput bool

	// MobileCheckbox is set for a checkbox toggled in the mobile drawer.
	MobileCheckbox bool
}

// Config holds the filter surface configuration.
type Config struct {
	// FormID is the id of the form the surface is bound to.
	FormID string `yaml:"form_id"`

	// Debounce is restarted by each input.
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns the configuration for the surface bound to formID.
func DefaultConfig(formID string) Config {
	return Config{
		FormID:   formID,
		Debounce: DefaultDebounce,
	}
}

// Controller is the state machine of one filter surface.
type Controller struct {
	ctx      context.Context
	renderer Renderer
	config   Config
	logger   zerolog.Logger

	mu       sync.Mutex
	state    State
	timer    *time.Timer
	seq      uint64
	last     InputEvent
	inflight int
	cycle    *engine.Cycle
}

// NewController binds a surface to renderer. Renders run with ctx.
func NewController(ctx context.Context, renderer Renderer, cfg Config) *Controller {
	if renderer == nil {
		panic("renderer cannot be nil")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.FormID == "" {
		cfg.FormID = FiltersFormID
	}
	return &Controller{
		ctx:      ctx,
		renderer: renderer,
		config:   cfg,
		logger:   logging.NewLogger(logging.ComponentForm).With().Str("form", cfg.FormID).Logger(),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cycle returns the last render started by this surface.
func (c *Controller) Cycle() *engine.Cycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}

// Input records a field change and restarts the debounce window. The
// form is read when the window elapses, so callers mutate the page first.
func (c *Controller) Input(ev InputEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fire(EventInputChanged)
	c.seq++
	seq := c.seq
	c.last = ev

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.config.Debounce, func() {
		c.elapsed(seq)
	})
}

func (c *Controller) elapsed(seq uint64) {
	c.mu.Lock()
	if seq != c.seq || !c.fire(EventDebounceElapsed) {
		c.mu.Unlock()
		return
	}
	ev := c.last
	c.inflight++
	c.mu.Unlock()

	q := c.Query(ev)

	var trigger *reconcile.Trigger
	if ev.FacetID != "" {
		trigger = &reconcile.Trigger{FacetID: ev.FacetID, TextInput: ev.TextInput}
	}

	c.logger.Debug().Str("query", q).Str("facet", ev.FacetID).Msg("Debounce elapsed")

	cycle := c.renderer.Render(c.ctx, q, trigger, true)

	c.mu.Lock()
	c.cycle = cycle
	c.mu.Unlock()

	cycle.OnSettled(c.settled)
}

func (c *Controller) settled(*engine.Cycle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		c.fire(EventFetchSettled)
	}
}

// fire applies e. The caller holds c.mu.
func (c *Controller) fire(e Event) bool {
	next, ok := Transition(c.state, e)
	if !ok {
		c.logger.Debug().Str("state", c.state.String()).Str("event", e.String()).Msg("Event ignored")
		return false
	}
	c.state = next
	return true
}

// Query builds the canonical query the surface would submit for ev. A
// mobile checkbox or the mobile drawer submits only its own form; desktop
// surfaces combine the sort and filter forms in document order.
func (c *Controller) Query(ev InputEvent) string {
	var q string
	c.renderer.Page().Do(func(d *dom.Doc) {
		sliderMax, _ := query.SliderMax(d.Selection)
		b := query.NewBuilder(sliderMax)

		if ev.MobileCheckbox || c.config.FormID == MobileFormID {
			q = b.Encode(query.FormFields(d.ByID(c.config.FormID)))
			return
		}

		var parts []string
		d.Find(FormsSelector).Each(func(_ int, f *goquery.Selection) {
			switch f.AttrOr("id", "") {
			case SortFormID, FiltersFormID, SortDrawerFormID:
				parts = append(parts, b.Encode(query.FormFields(f)))
			}
		})
		q = query.Combine(parts...)
	})
	return q
}
