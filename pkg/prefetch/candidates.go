package prefetch

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/Sternrassler/storefront-facets/pkg/cache"
	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/engine"
	"github.com/Sternrassler/storefront-facets/pkg/query"
)

// Candidates returns the queries one checkbox click away from current:
// current plus one unchecked, enabled checkbox of the form with formID.
// Duplicates are dropped, order follows the document.
func Candidates(d *dom.Doc, formID, current string) []string {
	base := query.Parse(current)
	seen := map[string]bool{base.Encode(): true}

	var out []string
	d.ByID(formID).Find(`input[type="checkbox"]`).Each(func(_ int, s *goquery.Selection) {
		name := s.AttrOr("name", "")
		if name == "" {
			return
		}
		if _, checked := s.Attr("checked"); checked {
			return
		}
		if _, disabled := s.Attr("disabled"); disabled {
			return
		}
		q := base.Add(name, s.AttrOr("value", "on")).Encode()
		if seen[q] {
			return
		}
		seen[q] = true
		out = append(out, q)
	})
	return out
}

// URLs expands queries into the fragment URLs of every section.
func URLs(path string, sections []engine.Section, queries []string) []string {
	urls := make([]string, 0, len(sections)*len(queries))
	for _, q := range queries {
		for _, s := range sections {
			urls = append(urls, cache.Key{Path: path, SectionID: s.SectionID, Query: q}.URL())
		}
	}
	return urls
}
