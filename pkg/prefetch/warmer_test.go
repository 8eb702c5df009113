package prefetch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/engine"
)

type stubLoader struct {
	mu      sync.Mutex
	loaded  []string
	fail    map[string]bool
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func (l *stubLoader) Load(ctx context.Context, url string) (string, error) {
	n := l.active.Add(1)
	defer l.active.Add(-1)
	for {
		m := l.maxSeen.Load()
		if n <= m || l.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(l.delay)

	if l.fail[url] {
		return "", errors.New("boom")
	}
	l.mu.Lock()
	l.loaded = append(l.loaded, url)
	l.mu.Unlock()
	return "<div></div>", nil
}

func TestWarm_BoundedConcurrency(t *testing.T) {
	loader := &stubLoader{delay: 10 * time.Millisecond}
	w := New(loader, Config{MaxConcurrency: 2, Timeout: time.Second})

	urls := []string{"/a", "/b", "/c", "/d", "/e"}
	results, err := w.Warm(context.Background(), urls)
	if err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if len(results) != len(urls) {
		t.Fatalf("Expected %d results, got %d", len(urls), len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] || r.Err != nil {
			t.Errorf("results[%d] = %+v", i, r)
		}
	}
	if got := loader.maxSeen.Load(); got > 2 {
		t.Errorf("Expected at most 2 concurrent loads, saw %d", got)
	}
	if len(loader.loaded) != len(urls) {
		t.Errorf("Expected %d loads, got %d", len(urls), len(loader.loaded))
	}
}

func TestWarm_PartialFailure(t *testing.T) {
	loader := &stubLoader{fail: map[string]bool{"/b": true}}
	w := New(loader, DefaultConfig())

	results, err := w.Warm(context.Background(), []string{"/a", "/b", "/c"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "warmed 2/3") || !strings.Contains(err.Error(), "/b") {
		t.Errorf("Unexpected error: %v", err)
	}
	if results[1].Err == nil || results[0].Err != nil || results[2].Err != nil {
		t.Errorf("Unexpected results: %+v", results)
	}
}

func TestWarm_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := &stubLoader{}
	results, err := New(loader, DefaultConfig()).Warm(ctx, []string{"/a", "/b"})
	if err == nil {
		t.Fatal("Expected error")
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("Expected context.Canceled for %s, got %v", r.URL, r.Err)
		}
	}
	if len(loader.loaded) != 0 {
		t.Error("Expected no loads after cancellation")
	}
}

func TestWarm_Empty(t *testing.T) {
	results, err := New(&stubLoader{}, DefaultConfig()).Warm(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("Warm(nil) = %v, %v", results, err)
	}
}

func TestCandidates(t *testing.T) {
	page, err := dom.ParsePage(`<html><body>
<form id="FacetFiltersForm">
  <input type="checkbox" name="filter.v.option.color" value="Red" checked>
  <input type="checkbox" name="filter.v.option.color" value="Blue">
  <input type="checkbox" name="filter.v.option.color" value="Blue">
  <input type="checkbox" name="filter.v.option.size" value="M" disabled>
  <input type="checkbox" name="filter.v.availability" value="1">
  <input type="number" name="filter.v.price.gte" value="0">
</form>
</body></html>`)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	page.Do(func(d *dom.Doc) {
		got = Candidates(d, "FacetFiltersForm", "filter.v.option.color=Red")
	})
	want := []string{
		"filter.v.option.color=Red&filter.v.option.color=Blue",
		"filter.v.option.color=Red&filter.v.availability=1",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Candidates() = %q, want %q", got, want)
	}
}

func TestURLs(t *testing.T) {
	sections := []engine.Section{{SectionID: "grid"}, {SectionID: "recs"}}
	got := URLs("/collections/all", sections, []string{"a=1"})
	want := []string{
		"/collections/all?section_id=grid&a=1",
		"/collections/all?section_id=recs&a=1",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("URLs() = %q, want %q", got, want)
	}
}
