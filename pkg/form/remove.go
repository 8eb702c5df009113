package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/engine"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
	"github.com/Sternrassler/storefront-facets/pkg/query"
)

// PillSelector matches the links of the active-filter pills.
const PillSelector = "facet-remove a"

// ErrNoSuchPill is returned when a pill index is out of range.
var ErrNoSuchPill = errors.New("no such active filter pill")

// RemovableFacet handles clicks on active-filter pills.
type RemovableFacet struct {
	renderer Renderer
	logger   zerolog.Logger
}

// NewRemovableFacet creates the pill handler.
func NewRemovableFacet(renderer Renderer) *RemovableFacet {
	if renderer == nil {
		panic("renderer cannot be nil")
	}
	return &RemovableFacet{
		renderer: renderer,
		logger:   logging.NewLogger(logging.ComponentForm),
	}
}

// Activate removes a filter by rendering the query of the pill's link.
// Every pill is disabled until the active filters are reconciled.
func (f *RemovableFacet) Activate(ctx context.Context, href string) *engine.Cycle {
	f.renderer.DisableRemovePills()
	q := query.FromHref(href)
	f.logger.Debug().Str("href", href).Str("query", q).Msg("Pill activated")
	return f.renderer.Render(ctx, q, nil, true)
}

// ActivateElement activates the pill at index in document order.
func (f *RemovableFacet) ActivateElement(ctx context.Context, index int) (*engine.Cycle, error) {
	var (
		href  string
		found bool
	)
	if index < 0 {
		return nil, fmt.Errorf("%w: index %d", ErrNoSuchPill, index)
	}
	f.renderer.Page().Do(func(d *dom.Doc) {
		pill := d.Find(PillSelector).Eq(index)
		if pill.Length() == 0 {
			return
		}
		href, found = pill.AttrOr("href", ""), true
	})
	if !found {
		return nil, fmt.Errorf("%w: index %d", ErrNoSuchPill, index)
	}
	return f.Activate(ctx, href), nil
}
