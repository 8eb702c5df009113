package reconcile

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
)

var (
	regionAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facets_region_applied_total",
		Help: "Regions reconciled into the live page by region and strategy",
	}, []string{"region", "strategy"})

	regionSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facets_region_skipped_total",
		Help: "Regions skipped because a node was missing or the fragment was malformed",
	}, []string{"region"})
)

// Trigger identifies the control whose input caused a render.
type Trigger struct {
	// FacetID is the id of the facet element that contains the input.
	FacetID string

	// TextInput is set when the input was a free-text field, which keeps
	// its own focus.
	TextInput bool
}

// ScrollRequest asks the viewport to bring an element into view.
type ScrollRequest struct {
	// TargetID is the element to scroll to.
	TargetID string

	// Offset is added to the element's top, negative to land above it.
	Offset int

	Smooth bool
}

// Viewport receives scroll requests after the grid is replaced.
type Viewport interface {
	ScrollTo(req ScrollRequest)
}

// GridHook re-initializes widgets that depend on the grid's nodes. Hooks
// run inside Page.Do right after each grid swap.
type GridHook func(d *dom.Doc)

// Config holds the reconciler configuration.
type Config struct {
	// HeaderOffset is the height of the fixed header in pixels.
	HeaderOffset int `yaml:"header_offset"`

	// ScrollMargin is the extra space kept above the grid when scrolling.
	ScrollMargin int `yaml:"scroll_margin"`

	Viewport  Viewport   `yaml:"-"`
	GridHooks []GridHook `yaml:"-"`
}

// DefaultConfig returns the default reconciler configuration.
func DefaultConfig() Config {
	return Config{
		HeaderOffset: 0,
		ScrollMargin: 50,
	}
}

type region struct {
	name     Region
	strategy Strategy
	apply    func(r *Reconciler, d *dom.Doc, frag *goquery.Document, trigger *Trigger) error
}

// regions run in order. Facets must precede trigger counts: focus
// restoration looks up the already reconciled trigger element.
var regions = []region{
	{RegionFacets, PatchByID, (*Reconciler).applyFacets},
	{RegionActiveFilters, ReplaceWholesale, (*Reconciler).applyActiveFilters},
	{RegionAncillary, ReplaceWholesale, (*Reconciler).applyAncillary},
	{RegionTriggerCounts, ReplaceWholesale, (*Reconciler).applyTriggerCounts},
	{RegionGrid, ReplaceWholesale, (*Reconciler).applyGrid},
	{RegionCount, ReplaceWholesale, (*Reconciler).applyCount},
}

// StrategyFor returns the strategy used for region.
func StrategyFor(name Region) (Strategy, bool) {
	for _, rg := range regions {
		if rg.name == name {
			return rg.strategy, true
		}
	}
	return 0, false
}

// Reconciler merges fragments into the live page.
type Reconciler struct {
	config Config
	logger zerolog.Logger
}

// New creates a reconciler.
func New(cfg Config) *Reconciler {
	return &Reconciler{
		config: cfg,
		logger: logging.NewLogger(logging.ComponentReconcile),
	}
}

// AddGridHook registers a hook run after each grid swap.
func (r *Reconciler) AddGridHook(hook GridHook) {
	r.config.GridHooks = append(r.config.GridHooks, hook)
}

// Apply merges fragment into d. The caller holds the page via Page.Do.
func (r *Reconciler) Apply(d *dom.Doc, fragment string, trigger *Trigger) Report {
	var report Report

	frag, err := dom.ParseFragment(fragment)
	if err != nil {
		for _, rg := range regions {
			report.Skipped = append(report.Skipped, &RegionError{Region: rg.name, Err: errors.Join(ErrMalformedFragment, err)})
			regionSkippedTotal.WithLabelValues(string(rg.name)).Inc()
		}
		r.logger.Warn().Err(err).Msg("Fragment could not be parsed")
		return report
	}

	for _, rg := range regions {
		err := rg.apply(r, d, frag, trigger)
		switch {
		case err == nil:
			report.Applied = append(report.Applied, rg.name)
			regionAppliedTotal.WithLabelValues(string(rg.name), rg.strategy.String()).Inc()
		case errors.Is(err, errNotApplicable):
		default:
			report.Skipped = append(report.Skipped, &RegionError{Region: rg.name, Err: err})
			regionSkippedTotal.WithLabelValues(string(rg.name)).Inc()
			r.logger.Warn().Err(err).Str("region", string(rg.name)).Msg("Region skipped")
		}
	}

	return report
}
