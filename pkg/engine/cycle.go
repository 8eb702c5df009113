package engine

import (
	"errors"
	"sync"

	"github.com/Sternrassler/storefront-facets/pkg/reconcile"
)

// SectionResult is the outcome of one section of a render cycle.
type SectionResult struct {
	Section Section
	URL     string

	// Err is the fetch error, nil when the fragment was loaded.
	Err error

	// Stale is set when the fragment was loaded but not applied because a
	// newer render had started.
	Stale bool

	Report reconcile.Report
}

// Cycle tracks one render: a query fanned out to every section.
type Cycle struct {
	Query         string
	UpdateHistory bool
	Generation    uint64

	mu        sync.Mutex
	results   []SectionResult
	remaining int
	done      chan struct{}
	settled   []func(*Cycle)
}

func newCycle(query string, updateHistory bool, generation uint64, sections int) *Cycle {
	c := &Cycle{
		Query:         query,
		UpdateHistory: updateHistory,
		Generation:    generation,
		remaining:     sections,
		done:          make(chan struct{}),
	}
	return c
}

// Done is closed once every section has settled.
func (c *Cycle) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until every section has settled and returns the results.
func (c *Cycle) Wait() []SectionResult {
	<-c.done
	return c.Results()
}

// Results returns the sections settled so far, in settlement order.
func (c *Cycle) Results() []SectionResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SectionResult(nil), c.results...)
}

// Err joins the fetch errors of all settled sections.
func (c *Cycle) Err() error {
	var errs []error
	for _, r := range c.Results() {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// OnSettled registers fn to run once the cycle has settled. If it already
// has, fn runs immediately.
func (c *Cycle) OnSettled(fn func(*Cycle)) {
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		fn(c)
		return
	default:
	}
	c.settled = append(c.settled, fn)
	c.mu.Unlock()
}

// record stores a section result and reports whether it was the last one.
func (c *Cycle) record(r SectionResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
	c.remaining--
	return c.remaining == 0
}

// finish closes the cycle and runs the settled callbacks.
func (c *Cycle) finish() {
	c.mu.Lock()
	close(c.done)
	callbacks := c.settled
	c.settled = nil
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(c)
	}
}
