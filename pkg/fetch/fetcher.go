// Package fetch loads section fragments, serving repeated URLs from the
// fragment cache and hitting the network only on a miss.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/storefront-facets/pkg/cache"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
)

var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facets_fetch_requests_total",
		Help: "Total fragment loads by source and status",
	}, []string{"source", "status"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "facets_fetch_duration_seconds",
		Help:    "Network fragment fetch duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facets_fetch_errors_total",
		Help: "Total fragment fetch errors by class",
	}, []string{"class"})
)

// Config holds the fetcher configuration.
type Config struct {
	// BaseURL is the storefront origin relative fetch URLs resolve against,
	// e.g. "https://shop.example.com".
	BaseURL string `yaml:"base_url"`

	// UserAgent is sent with every request when set.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds a single network fetch.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default fetcher configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "storefront-facets/0.1",
		Timeout:   15 * time.Second,
	}
}

// Fetcher loads fragments through the cache.
type Fetcher struct {
	httpClient *http.Client
	cache      *cache.Manager
	base       *url.URL
	config     Config
	logger     zerolog.Logger
}

// New creates a fetcher that stores fragments in cacheManager.
func New(cfg Config, cacheManager *cache.Manager) (*Fetcher, error) {
	if cacheManager == nil {
		return nil, fmt.Errorf("cache manager is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cacheManager,
		base:       base,
		config:     cfg,
		logger:     logging.NewLogger(logging.ComponentFetcher),
	}, nil
}

// SetHTTPClient replaces the HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// Cache returns the fragment cache.
func (f *Fetcher) Cache() *cache.Manager {
	return f.cache
}

// Load returns the fragment for rawURL. A cached fragment is returned
// without touching the network; otherwise the URL is fetched, the full body
// is stored in the cache and returned. Failures are not retried and nothing
// is cached for them.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", ErrEmptyURL
	}

	html, err := f.cache.Get(ctx, rawURL)
	switch {
	case err == nil:
		fetchRequestsTotal.WithLabelValues("cache", "hit").Inc()
		return html, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		f.logger.Warn().Err(err).Str("url", rawURL).Msg("Cache get error, fetching")
	}

	html, err = f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if err := f.cache.Set(ctx, rawURL, html); err != nil {
		f.logger.Warn().Err(err).Str("url", rawURL).Msg("Failed to cache fragment")
	}
	return html, nil
}

// Fetch loads rawURL from the network, bypassing the cache. It is used for
// the initial full page, which is never served from the fragment cache.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target, err := f.resolve(rawURL)
	if err != nil {
		return "", &FetchError{URL: rawURL, ErrorClass: ErrorClassClient, Message: "invalid url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	req.Header.Set("Accept", "text/html")

	startTime := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(startTime).Seconds())
	}()

	f.logger.Debug().Str("url", target).Msg("Fetching fragment")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		fetchRequestsTotal.WithLabelValues("network", "network_error").Inc()
		return "", &FetchError{URL: rawURL, ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	if class := classifyStatus(resp.StatusCode); class != "" {
		fetchErrorsTotal.WithLabelValues(string(class)).Inc()
		fetchRequestsTotal.WithLabelValues("network", status).Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		fetchRequestsTotal.WithLabelValues("network", "read_error").Inc()
		return "", &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}

	fetchRequestsTotal.WithLabelValues("network", status).Inc()
	return string(body), nil
}

// resolve turns a path-relative fetch URL into an absolute one.
func (f *Fetcher) resolve(rawURL string) (string, error) {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL, nil
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return f.base.ResolveReference(ref).String(), nil
}
