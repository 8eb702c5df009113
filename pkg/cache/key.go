package cache

import (
	"strings"
)

// SectionParam is the query parameter the storefront uses to render a
// single section instead of the full page.
const SectionParam = "section_id"

// Key identifies one fragment: a section rendered for a query on a path.
type Key struct {
	// Path is the listing path, e.g. "/collections/all".
	Path string

	// SectionID is the server-side section identifier.
	SectionID string

	// Query is the canonical filter query, without a leading '?'.
	Query string
}

// URL returns the fetch URL for the key: path?section_id=<id>&<query>.
// The separator before the query is kept even when the query is empty so
// that every section URL has one stable form.
func (k Key) URL() string {
	var b strings.Builder
	b.WriteString(k.Path)
	b.WriteByte('?')
	b.WriteString(SectionParam)
	b.WriteByte('=')
	b.WriteString(k.SectionID)
	b.WriteByte('&')
	b.WriteString(strings.TrimPrefix(k.Query, "?"))
	return b.String()
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.URL()
}
