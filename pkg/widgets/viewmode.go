// Package widgets re-initializes grid-dependent widgets after the product
// grid is swapped: the column-count view mode and scroll-reveal triggers.
package widgets

import (
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
)

// Mode is the layout the grid is shown in.
type Mode string

const (
	ModeDesktop Mode = "desktop"
	ModeMobile  Mode = "mobile"
)

// Preference keys, shared with the storefront's own storage.
const (
	DesktopColsKey = "productDesktopViewCols"
	MobileColsKey  = "productMobileViewCols"
)

var (
	desktopColsPattern = regexp.MustCompile(`^lg:grid-cols-\d+$`)
	mobileColsPattern  = regexp.MustCompile(`^grid-cols-\d+$`)
)

// Preferences stores the shopper's column choice per mode.
type Preferences interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryPreferences is an in-memory Preferences.
type MemoryPreferences struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryPreferences creates empty preferences.
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{values: make(map[string]string)}
}

// Get implements Preferences.
func (p *MemoryPreferences) Get(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok
}

// Set implements Preferences.
func (p *MemoryPreferences) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
}

// ViewModeConfig holds the view mode selectors and defaults.
type ViewModeConfig struct {
	GridID                string `yaml:"grid_id"`
	DesktopButtonSelector string `yaml:"desktop_button_selector"`
	MobileButtonSelector  string `yaml:"mobile_button_selector"`
	DefaultDesktopCols    string `yaml:"default_desktop_cols"`
	DefaultMobileCols     string `yaml:"default_mobile_cols"`
}

// DefaultViewModeConfig returns the storefront's view mode defaults.
func DefaultViewModeConfig() ViewModeConfig {
	return ViewModeConfig{
		GridID:                "product-grid",
		DesktopButtonSelector: ".view-mode__button",
		MobileButtonSelector:  ".view-mode__button-mobile",
		DefaultDesktopCols:    "4",
		DefaultMobileCols:     "2",
	}
}

// ViewMode applies the saved column count to the product grid.
type ViewMode struct {
	config  ViewModeConfig
	prefs   Preferences
	mode    func() Mode
	scroll  *ScrollTrigger
	logger  zerolog.Logger
	mu      sync.Mutex
	applied Mode
	cols    string
}

// NewViewMode creates a view mode controller. mode reports the current
// layout; a nil mode means desktop.
func NewViewMode(cfg ViewModeConfig, prefs Preferences, mode func() Mode, scroll *ScrollTrigger) *ViewMode {
	if prefs == nil {
		prefs = NewMemoryPreferences()
	}
	if mode == nil {
		mode = func() Mode { return ModeDesktop }
	}
	return &ViewMode{
		config: cfg,
		prefs:  prefs,
		mode:   mode,
		scroll: scroll,
		logger: logging.NewLogger(logging.ComponentWidgets),
	}
}

// Hook re-applies the view mode; it is meant to be registered as a grid hook.
func (v *ViewMode) Hook(d *dom.Doc) {
	v.Apply(d, true)
}

// Apply sets the grid's column class for the current mode. Unless force is
// set, nothing happens when mode and columns are unchanged.
func (v *ViewMode) Apply(d *dom.Doc, force bool) {
	grid := d.ByID(v.config.GridID)
	desktopButtons := d.Find(v.config.DesktopButtonSelector)
	mobileButtons := d.Find(v.config.MobileButtonSelector)
	if grid.Length() == 0 || (desktopButtons.Length() == 0 && mobileButtons.Length() == 0) {
		return
	}

	mode := v.mode()
	cols := v.savedCols(mode)

	v.mu.Lock()
	unchanged := mode == v.applied && cols == v.cols
	v.mu.Unlock()
	if !force && unchanged {
		return
	}

	switch {
	case mode == ModeDesktop && desktopButtons.Length() > 0:
		removeMatchingClasses(grid, desktopColsPattern)
		grid.AddClass("lg:grid-cols-" + cols)
		markActive(desktopButtons, cols)
	case mode == ModeMobile && mobileButtons.Length() > 0:
		removeMatchingClasses(grid, mobileColsPattern)
		grid.AddClass("grid-cols-" + cols)
		markActive(mobileButtons, cols)
	}

	v.mu.Lock()
	v.applied = mode
	v.cols = cols
	v.mu.Unlock()

	v.logger.Debug().Str("mode", string(mode)).Str("cols", cols).Msg("Applied view mode")

	if v.scroll != nil {
		v.scroll.Rearm(d, grid)
	}
}

// Select stores a column choice for mode and re-applies it, as a click on
// a view mode button does.
func (v *ViewMode) Select(d *dom.Doc, mode Mode, cols string) {
	v.prefs.Set(prefKey(mode), cols)
	v.Apply(d, true)
}

func (v *ViewMode) savedCols(mode Mode) string {
	if cols, ok := v.prefs.Get(prefKey(mode)); ok && cols != "" {
		return cols
	}
	if mode == ModeDesktop {
		return v.config.DefaultDesktopCols
	}
	return v.config.DefaultMobileCols
}

func prefKey(mode Mode) string {
	if mode == ModeDesktop {
		return DesktopColsKey
	}
	return MobileColsKey
}

func removeMatchingClasses(s *goquery.Selection, pattern *regexp.Regexp) {
	for _, class := range strings.Fields(s.AttrOr("class", "")) {
		if pattern.MatchString(class) {
			s.RemoveClass(class)
		}
	}
}

func markActive(buttons *goquery.Selection, cols string) {
	buttons.Each(func(_ int, b *goquery.Selection) {
		if b.AttrOr("data-view-mode", "") == cols {
			b.AddClass("active")
		} else {
			b.RemoveClass("active")
		}
	})
}
