package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/storefront-facets/internal/testutil"
	"github.com/Sternrassler/storefront-facets/pkg/cache"
	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/engine"
	"github.com/Sternrassler/storefront-facets/pkg/fetch"
	"github.com/Sternrassler/storefront-facets/pkg/history"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// pageView is one shopper's page: its own live document and history,
// sharing the fragment store with every other view.
type pageView struct {
	engine  *engine.Engine
	browser *history.MemoryBrowser
}

func newPageView(t *testing.T, sf *testutil.Storefront, store cache.Store) *pageView {
	t.Helper()

	fetcher, err := fetch.New(fetch.DefaultConfig(sf.URL()), cache.NewManager(store))
	if err != nil {
		t.Fatalf("fetch.New failed: %v", err)
	}
	body, err := fetcher.Fetch(context.Background(), sf.Path())
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	page, err := dom.ParsePage(body)
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}

	browser := history.NewMemoryBrowser(sf.Path(), "")
	hist := history.NewController(browser, "")
	browser.Bind(hist)

	e, err := engine.New(engine.DefaultConfig(sf.Path()), page, fetcher, hist)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	e.ListenHistory(context.Background())
	return &pageView{engine: e, browser: browser}
}

// TestSharedRedisCache tests that page views share fragments through Redis:
// first view → network → Redis, second view → Redis only.
func TestSharedRedisCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	sf := testutil.NewStorefront()
	defer sf.Close()

	store := cache.NewRedisStore(redisClient, 0)
	ctx := context.Background()
	q := "filter.v.option.color=Red"
	url := cache.Key{Path: sf.Path(), SectionID: sf.SectionID(), Query: q}.URL()

	first := newPageView(t, sf, store)
	cycle := first.engine.Render(ctx, q, nil, true)
	cycle.Wait()
	if err := cycle.Err(); err != nil {
		t.Fatalf("first render failed: %v", err)
	}

	second := newPageView(t, sf, store)
	cycle = second.engine.Render(ctx, q, nil, true)
	cycle.Wait()
	if err := cycle.Err(); err != nil {
		t.Fatalf("second render failed: %v", err)
	}

	if got := sf.Requests(url); got != 1 {
		t.Errorf("Expected 1 fragment request across both views, got %d", got)
	}

	firstHTML, _ := first.engine.Page().HTML()
	secondHTML, _ := second.engine.Page().HTML()
	if firstHTML != secondHTML {
		t.Error("Expected both views to render the same document")
	}

	ttl, err := redisClient.TTL(ctx, cache.DefaultRedisPrefix+url).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl >= 0 {
		t.Errorf("Expected no expiry, got TTL %v", ttl)
	}
}

// TestRedisCache_TTL tests that a configured TTL is applied to fragments.
func TestRedisCache_TTL(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	manager := cache.NewManager(cache.NewRedisStore(redisClient, time.Minute))
	ctx := context.Background()
	url := "/collections/all?section_id=grid&filter.v.availability=1"

	if err := manager.Set(ctx, url, "<div>fragment</div>"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	html, err := manager.Get(ctx, url)
	if err != nil || html != "<div>fragment</div>" {
		t.Fatalf("Get = %q, %v", html, err)
	}

	ttl, err := redisClient.TTL(ctx, cache.DefaultRedisPrefix+url).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("Expected TTL within (0, 1m], got %v", ttl)
	}
}

// TestBackForwardWithRedis tests history replay served from the shared cache.
func TestBackForwardWithRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	sf := testutil.NewStorefront()
	defer sf.Close()

	view := newPageView(t, sf, cache.NewRedisStore(redisClient, 0))
	ctx := context.Background()

	view.engine.Render(ctx, "filter.v.option.color=Red", nil, true).Wait()
	view.engine.Render(ctx, "filter.v.option.color=Blue", nil, true).Wait()
	before := sf.TotalRequests()

	if !view.browser.Back() {
		t.Fatal("Back() reported no previous entry")
	}
	view.engine.Current().Wait()
	if !view.browser.Forward() {
		t.Fatal("Forward() reported no next entry")
	}
	view.engine.Current().Wait()

	if got := sf.TotalRequests() - before; got != 0 {
		t.Errorf("Expected back/forward to be served from Redis, got %d requests", got)
	}

	var grid string
	view.engine.Page().Do(func(d *dom.Doc) {
		grid = strings.TrimSpace(d.ByID("product-grid").Find(".card__heading").Text())
	})
	if grid != "Blue Shirt" {
		t.Errorf("grid after forward = %q", grid)
	}
}
