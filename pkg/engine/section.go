package engine

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
)

// Section is one server-renderable region of the listing page.
type Section struct {
	// SectionID is the id the server renders the section under.
	SectionID string

	// RenderTargetID is the id of the live element the section renders into.
	RenderTargetID string
}

// DefaultSectionSelector matches the elements declaring sections.
const DefaultSectionSelector = "#product-grid"

// ReadSections collects the section manifest from data-id attributes on
// the elements matching selector.
func ReadSections(d *dom.Doc, selector string) []Section {
	var sections []Section
	d.Find(selector).Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr("data-id")
		if !ok || id == "" {
			return
		}
		sections = append(sections, Section{
			SectionID:      id,
			RenderTargetID: s.AttrOr("id", ""),
		})
	})
	return sections
}
