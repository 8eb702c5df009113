package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/storefront-facets/internal/testutil"
	"github.com/Sternrassler/storefront-facets/pkg/cache"
)

func newFetcher(t *testing.T, baseURL string) (*Fetcher, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore()
	f, err := New(DefaultConfig(baseURL), cache.NewManager(store))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f, store
}

func TestNew_Validation(t *testing.T) {
	manager := cache.NewManager(cache.NewMemoryStore())

	tests := []struct {
		name    string
		cfg     Config
		manager *cache.Manager
	}{
		{"no cache", DefaultConfig("http://shop.test"), nil},
		{"no base url", DefaultConfig(""), manager},
		{"relative base url", DefaultConfig("/collections"), manager},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.manager); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoad_MissFetchesAndCaches(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	f, store := newFetcher(t, sf.URL())
	url := cache.Key{Path: sf.Path(), SectionID: sf.SectionID(), Query: "filter.v.option.color=Red"}.URL()

	first, err := f.Load(context.Background(), url)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(first, "Red Shirt") || strings.Contains(first, "Blue Shirt") {
		t.Errorf("Unexpected fragment: %q", first)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 cache entry, got %d", store.Len())
	}

	second, err := f.Load(context.Background(), url)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if second != first {
		t.Error("Expected cached fragment to equal the fetched one")
	}
	if got := sf.Requests(url); got != 1 {
		t.Errorf("Expected exactly 1 network request for %s, got %d", url, got)
	}
}

func TestLoad_ServerErrorNotCached(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()
	sf.SetFailure(http.StatusInternalServerError)

	f, store := newFetcher(t, sf.URL())
	url := cache.Key{Path: sf.Path(), SectionID: sf.SectionID()}.URL()

	_, err := f.Load(context.Background(), url)
	if err == nil {
		t.Fatal("Expected error")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fe.StatusCode != http.StatusInternalServerError || fe.ErrorClass != ErrorClassServer {
		t.Errorf("Unexpected error: %+v", fe)
	}
	if store.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d entries", store.Len())
	}

	// No retry: the next Load goes to the network again.
	sf.SetFailure(0)
	if _, err := f.Load(context.Background(), url); err != nil {
		t.Fatalf("Load after recovery failed: %v", err)
	}
	if got := sf.Requests(url); got != 2 {
		t.Errorf("Expected 2 requests, got %d", got)
	}
}

func TestLoad_ClientError(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	f, _ := newFetcher(t, sf.URL())
	_, err := f.Load(context.Background(), "/no/such/page?section_id=x")
	if ClassOf(err) != ErrorClassClient {
		t.Errorf("Expected client error class, got %q (%v)", ClassOf(err), err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	f, store := newFetcher(t, base)
	_, err := f.Load(context.Background(), "/collections/all?section_id=grid")
	if ClassOf(err) != ErrorClassNetwork {
		t.Errorf("Expected network error class, got %q (%v)", ClassOf(err), err)
	}
	if store.Len() != 0 {
		t.Error("Expected nothing cached after network error")
	}
}

func TestLoad_EmptyURL(t *testing.T) {
	f, _ := newFetcher(t, "http://shop.test")
	if _, err := f.Load(context.Background(), ""); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("Expected ErrEmptyURL, got %v", err)
	}
}

func TestLoad_ResolvesRelativeURL(t *testing.T) {
	var gotURI, gotAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI.Store(r.URL.RequestURI())
		gotAgent.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<div>ok</div>"))
	}))
	defer server.Close()

	f, _ := newFetcher(t, server.URL)
	if _, err := f.Load(context.Background(), "/collections/all?section_id=grid&sort_by=price-ascending"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := gotURI.Load(); got != "/collections/all?section_id=grid&sort_by=price-ascending" {
		t.Errorf("Server saw %v", got)
	}
	if got := gotAgent.Load(); got != "storefront-facets/0.1" {
		t.Errorf("User-Agent = %v", got)
	}
}

type brokenStore struct{}

func (brokenStore) Name() string { return "broken" }

func (brokenStore) Get(context.Context, string) (*cache.Entry, error) {
	return nil, errors.New("backend down")
}

func (brokenStore) Set(context.Context, *cache.Entry) error {
	return errors.New("backend down")
}

func TestLoad_CacheBackendErrorFallsBackToNetwork(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	f, err := New(DefaultConfig(sf.URL()), cache.NewManager(brokenStore{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	url := cache.Key{Path: sf.Path(), SectionID: sf.SectionID()}.URL()
	html, err := f.Load(context.Background(), url)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(html, "product-grid") {
		t.Error("Expected fragment despite cache errors")
	}
}

func TestFetch_BypassesCache(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	f, store := newFetcher(t, sf.URL())
	for i := 0; i < 2; i++ {
		body, err := f.Fetch(context.Background(), sf.Path())
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if !strings.Contains(body, "<header") {
			t.Error("Expected the full page")
		}
	}
	if got := sf.Requests(sf.Path()); got != 2 {
		t.Errorf("Expected 2 network requests, got %d", got)
	}
	if store.Len() != 0 {
		t.Error("Expected Fetch not to write the cache")
	}
}
