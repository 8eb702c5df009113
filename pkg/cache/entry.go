package cache

import (
	"time"
)

// Entry is a cached fragment.
type Entry struct {
	// URL is the fetch URL the fragment was rendered for.
	URL string `json:"url"`

	// HTML is the full response body.
	HTML string `json:"html"`

	// CachedAt is when the fragment was stored.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry creates an entry stamped with the current time.
func NewEntry(url, html string) *Entry {
	return &Entry{URL: url, HTML: html, CachedAt: time.Now()}
}

// Age returns how long ago the entry was cached.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
