package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/storefront-facets/internal/testutil"
	"github.com/Sternrassler/storefront-facets/pkg/cache"
	"github.com/Sternrassler/storefront-facets/pkg/engine"
	"github.com/Sternrassler/storefront-facets/pkg/fetch"
)

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		readyHandler(func(context.Context) error { return nil })(w, httptest.NewRequest("GET", "/ready", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("not_ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		readyHandler(func(context.Context) error { return io.ErrUnexpectedEOF })(w, httptest.NewRequest("GET", "/ready", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Setenv("BASE_URL", "http://env.test")
	t.Setenv("LISTING_PATH", "/collections/env")
	t.Setenv("HEADER_OFFSET", "64")

	file := filepath.Join(t.TempDir(), "facet-render.yaml")
	content := `
path: /collections/file
stale: latest-only
cache_ttl: 10m
fetch:
  timeout: 3s
reconcile:
  scroll_margin: 20
log:
  level: debug
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig([]string{
		"-config", file,
		"-path", "/collections/flag",
		"-check", "filter.v.option.color=Red",
		"-check", "filter.v.availability=1",
	}, io.Discard)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.BaseURL != "http://env.test" || cfg.Fetch.BaseURL != "http://env.test" {
		t.Errorf("base url = %q / %q", cfg.BaseURL, cfg.Fetch.BaseURL)
	}
	if cfg.Path != "/collections/flag" {
		t.Errorf("path = %q, want the flag value", cfg.Path)
	}
	if cfg.Stale != engine.LatestOnly {
		t.Errorf("stale = %q", cfg.Stale)
	}
	if cfg.CacheTTL != 10*time.Minute || cfg.Fetch.Timeout != 3*time.Second {
		t.Errorf("durations = %v, %v", cfg.CacheTTL, cfg.Fetch.Timeout)
	}
	if cfg.Reconcile.HeaderOffset != 64 || cfg.Reconcile.ScrollMargin != 20 {
		t.Errorf("reconcile = %+v", cfg.Reconcile)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if strings.Join(cfg.Checks, ",") != "filter.v.option.color=Red,filter.v.availability=1" {
		t.Errorf("checks = %q", cfg.Checks)
	}
	if cfg.Remove != -1 {
		t.Errorf("remove = %d, want -1", cfg.Remove)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"relative path", []string{"-path", "collections"}},
		{"unknown stale policy", []string{"-stale", "newest"}},
		{"malformed check", []string{"-check", "color"}},
		{"unknown flag", []string{"-nope"}},
		{"missing config file", []string{"-config", "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(tt.args, io.Discard); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestRun_RendersQuery(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-base-url", sf.URL(),
		"-query", "filter.v.option.color=Red",
	}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"query: filter.v.option.color=Red\n",
		"history: /collections/all?filter.v.option.color=Red\n",
		"section " + testutil.DefaultSectionID + ": applied facets, active-filters, ancillary, grid, count\n",
		"count: 2 products\n",
		"active filters: Red\n",
		"grid items: 2\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestRun_Checks(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-base-url", sf.URL(),
		"-check", "filter.v.option.color=Blue",
		"-check", "filter.v.availability=1",
	}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "history: /collections/all?filter.v.option.color=Blue&filter.v.availability=1\n") {
		t.Errorf("Unexpected output:\n%s", stdout.String())
	}

	err = run(context.Background(), []string{"-base-url", sf.URL(), "-check", "filter.v.option.color=Purple"}, io.Discard, io.Discard)
	if err == nil {
		t.Error("Expected error for unknown control")
	}
}

func TestRun_RemovePill(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-base-url", sf.URL(),
		"-query", "filter.v.option.color=Red&filter.v.option.color=Blue",
		"-remove", "0",
	}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "history: /collections/all?filter.v.option.color=Blue\n") {
		t.Errorf("Unexpected history in output:\n%s", out)
	}
	if !strings.Contains(out, "active filters: Blue\n") {
		t.Errorf("Unexpected active filters in output:\n%s", out)
	}
}

func TestRun_HTML(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-base-url", sf.URL(), "-query", "filter.v.option.color=Green", "-html"}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "Green Hat") || strings.Contains(out, "Red Mug") {
		t.Error("Expected only the green product in the rendered page")
	}
	if !strings.Contains(out, "lg:grid-cols-4") {
		t.Error("Expected the view mode to be applied to the grid")
	}
}

func TestRun_FetchFailure(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()
	sf.SetFailure(http.StatusServiceUnavailable)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-base-url", sf.URL(), "-query", "filter.v.option.color=Red"}, &stdout, io.Discard)
	if fetch.ClassOf(err) != fetch.ErrorClassServer {
		t.Errorf("Expected server error, got %v", err)
	}
	if !strings.Contains(stdout.String(), "failed:") {
		t.Errorf("Expected failed section in output:\n%s", stdout.String())
	}
}

func TestRenderEndpoint(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	cfg, err := loadConfig([]string{"-base-url", sf.URL()}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	fetcher, err := fetch.New(cfg.Fetch, cache.NewManager(cache.NewMemoryStore()))
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(newServer(cfg, fetcher, func(context.Context) error { return nil }))
	defer server.Close()

	get := func(path string) (*http.Response, string) {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp, string(body)
	}

	for i := 0; i < 2; i++ {
		resp, body := get("/render?q=filter.v.option.color%3DRed")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, body)
		}
		if !strings.Contains(body, "Red Mug") || strings.Contains(body, "Blue Shirt") {
			t.Error("Expected the red listing")
		}
		if got := resp.Header.Get("X-Facets-History"); got != "/collections/all?filter.v.option.color=Red" {
			t.Errorf("X-Facets-History = %q", got)
		}
	}

	// Both requests share the fragment cache.
	url := cache.Key{Path: sf.Path(), SectionID: sf.SectionID(), Query: "filter.v.option.color=Red"}.URL()
	if got := sf.Requests(url); got != 1 {
		t.Errorf("Expected 1 fragment request, got %d", got)
	}

	resp, body := get("/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	for _, name := range []string{"facets_fetch_requests_total", "facets_render_cycles_total", "facets_region_applied_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}
}

func TestRun_Warm(t *testing.T) {
	sf := testutil.NewStorefront()
	defer sf.Close()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-base-url", sf.URL(),
		"-query", "filter.v.option.color=Red",
		"-warm",
	}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Unchecked desktop checkboxes after the red render: Blue, Green,
	// S, M, and in stock.
	if !strings.Contains(stdout.String(), "prefetched: 5/5\n") {
		t.Errorf("Unexpected output:\n%s", stdout.String())
	}
	next := cache.Key{
		Path:      sf.Path(),
		SectionID: sf.SectionID(),
		Query:     "filter.v.option.color=Red&filter.v.option.color=Blue",
	}.URL()
	if got := sf.Requests(next); got != 1 {
		t.Errorf("Expected the next query to be prefetched once, got %d", got)
	}
}
