package widgets

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
)

const (
	scrollTriggerSelector = ".scroll-trigger, .animate--slide-in"
	offscreenClass        = "scroll-trigger--offscreen"
	cancelClass           = "scroll-trigger--cancel"
	animationOrderProp    = "--animation-order"
)

// ScrollTrigger re-arms scroll-reveal animations on freshly swapped grid
// items and hands the grid to the reveal observer.
type ScrollTrigger struct {
	// Observe is called with the grid after its items are re-armed.
	Observe func(grid *goquery.Selection)
}

// Rearm resets the reveal state of every animated element in grid.
func (s *ScrollTrigger) Rearm(_ *dom.Doc, grid *goquery.Selection) {
	grid.Find(scrollTriggerSelector).Each(func(_ int, el *goquery.Selection) {
		el.AddClass(offscreenClass)
		el.RemoveClass(cancelClass)
		if _, ok := el.Attr("data-cascade"); ok {
			removeStyleProperty(el, animationOrderProp)
		}
	})
	if s.Observe != nil {
		s.Observe(grid)
	}
}

// removeStyleProperty drops one declaration from an inline style attribute.
func removeStyleProperty(el *goquery.Selection, prop string) {
	style, ok := el.Attr("style")
	if !ok {
		return
	}
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		name, _, _ := strings.Cut(decl, ":")
		if strings.TrimSpace(decl) == "" || strings.TrimSpace(name) == prop {
			continue
		}
		kept = append(kept, strings.TrimSpace(decl))
	}
	if len(kept) == 0 {
		el.RemoveAttr("style")
		return
	}
	el.SetAttr("style", strings.Join(kept, "; ")+";")
}
