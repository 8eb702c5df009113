// Package history keeps browser history in step with the rendered filter
// query and replays back/forward navigation through the render pipeline.
package history

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/logging"
)

var (
	historyCommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facets_history_commits_total",
		Help: "History entries pushed for committed renders",
	})

	historyReplaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facets_history_popstate_total",
		Help: "Back/forward navigation events by outcome",
	}, []string{"outcome"}) // "replayed", "ignored"
)

// State is attached to every history entry the controller pushes.
type State struct {
	Query string `json:"searchParams"`
}

// Browser is the history surface of the host page.
type Browser interface {
	// Path is the current location path, without query.
	Path() string

	// PushState adds a history entry.
	PushState(state State, url string)
}

// NavigateFunc re-renders the page for a query restored from history.
type NavigateFunc func(query string)

// Controller pushes committed queries into history and replays navigation.
type Controller struct {
	mu       sync.Mutex
	browser  Browser
	initial  string
	last     string
	handlers []NavigateFunc
	logger   zerolog.Logger
}

// NewController creates a controller. initialQuery is the query the page
// was loaded with; it is restored for navigation events without state.
func NewController(browser Browser, initialQuery string) *Controller {
	if browser == nil {
		panic("history browser cannot be nil")
	}
	return &Controller{
		browser: browser,
		initial: initialQuery,
		last:    initialQuery,
		logger:  logging.NewLogger(logging.ComponentHistory),
	}
}

// URL returns path with query appended, or path alone for an empty query.
func URL(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// Commit pushes a history entry for query.
func (c *Controller) Commit(query string) {
	c.mu.Lock()
	c.last = query
	c.mu.Unlock()

	url := URL(c.browser.Path(), query)
	c.browser.PushState(State{Query: query}, url)
	historyCommitsTotal.Inc()
	c.logger.Info().Str("query", query).Str("url", url).Msg("History committed")
}

// Track records query as the most recently requested one, whether or not
// it is committed to history.
func (c *Controller) Track(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = query
}

// Last returns the most recently requested query.
func (c *Controller) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Initial returns the query the page was loaded with.
func (c *Controller) Initial() string {
	return c.initial
}

// OnNavigate subscribes h to back/forward navigation.
func (c *Controller) OnNavigate(h NavigateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// PopState handles a back/forward event. A nil state stands for the entry
// the page was loaded with. Handlers run only when the restored query
// differs from the last requested one.
func (c *Controller) PopState(state *State) {
	query := c.initial
	if state != nil {
		query = state.Query
	}

	c.mu.Lock()
	if query == c.last {
		c.mu.Unlock()
		historyReplaysTotal.WithLabelValues("ignored").Inc()
		c.logger.Debug().Str("query", query).Msg("Popstate for current query ignored")
		return
	}
	handlers := append([]NavigateFunc(nil), c.handlers...)
	c.mu.Unlock()

	historyReplaysTotal.WithLabelValues("replayed").Inc()
	c.logger.Info().Str("query", query).Msg("Replaying history navigation")
	for _, h := range handlers {
		h(query)
	}
}
