package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/logging"
)

var (
	// ErrCacheMiss indicates no fragment is cached for the URL.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is nil or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager is the fragment cache used by the fetcher. It wraps a Store with
// metrics and logging.
type Manager struct {
	store  Store
	logger zerolog.Logger
}

// NewManager creates a cache manager over store.
func NewManager(store Store) *Manager {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Manager{
		store:  store,
		logger: logging.NewLogger(logging.ComponentCache).With().Str("store", store.Name()).Logger(),
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Get returns the cached HTML for url. Returns ErrCacheMiss when absent.
func (m *Manager) Get(ctx context.Context, url string) (string, error) {
	name := m.store.Name()

	entry, err := m.store.Get(ctx, url)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			CacheMisses.WithLabelValues(name).Inc()
			m.logger.Debug().Str("url", url).Msg("Cache miss")
			return "", ErrCacheMiss
		}
		CacheErrors.WithLabelValues(name, "get").Inc()
		return "", fmt.Errorf("cache get: %w", err)
	}

	CacheHits.WithLabelValues(name).Inc()
	m.logger.Debug().Str("url", url).Dur("age", entry.Age()).Msg("Cache hit")
	return entry.HTML, nil
}

// Set stores html for url.
func (m *Manager) Set(ctx context.Context, url, html string) error {
	name := m.store.Name()

	if err := m.store.Set(ctx, NewEntry(url, html)); err != nil {
		CacheErrors.WithLabelValues(name, "set").Inc()
		return fmt.Errorf("cache set: %w", err)
	}

	CacheEntries.WithLabelValues(name).Inc()
	CacheSize.WithLabelValues(name).Add(float64(len(html)))
	m.logger.Debug().Str("url", url).Int("bytes", len(html)).Msg("Cached fragment")
	return nil
}
