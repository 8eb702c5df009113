// Command facet-render renders a storefront listing headlessly: it loads
// the listing page, applies a filter query through the render pipeline
// and prints the reconciled regions. With -addr it serves renders over
// HTTP instead, sharing one fragment cache between requests.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/storefront-facets/pkg/cache"
	"github.com/Sternrassler/storefront-facets/pkg/dom"
	"github.com/Sternrassler/storefront-facets/pkg/engine"
	"github.com/Sternrassler/storefront-facets/pkg/fetch"
	"github.com/Sternrassler/storefront-facets/pkg/form"
	"github.com/Sternrassler/storefront-facets/pkg/history"
	"github.com/Sternrassler/storefront-facets/pkg/logging"
	"github.com/Sternrassler/storefront-facets/pkg/metrics"
	"github.com/Sternrassler/storefront-facets/pkg/prefetch"
	"github.com/Sternrassler/storefront-facets/pkg/reconcile"
	"github.com/Sternrassler/storefront-facets/pkg/widgets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error().Err(err).Msg("facet-render failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}
	cfg.Log.Output = stderr
	logger := logging.Setup(cfg.Log)

	store, ready, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	fetcher, err := fetch.New(cfg.Fetch, cache.NewManager(store))
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}

	if cfg.Addr != "" {
		return serve(ctx, cfg.Addr, newServer(cfg, fetcher, ready), logger)
	}

	out, err := render(ctx, cfg, fetcher)
	if err != nil {
		return err
	}
	if cfg.Warm {
		out.warmed, out.warmErr = warm(ctx, cfg, fetcher, out)
	}
	if cfg.HTML {
		body, err := out.engine.Page().HTML()
		if err != nil {
			return fmt.Errorf("render page html: %w", err)
		}
		_, err = io.WriteString(stdout, body)
		return err
	}
	printSummary(stdout, out)
	if err := out.cycle.Err(); err != nil {
		return fmt.Errorf("render %q: %w", out.cycle.Query, err)
	}
	return nil
}

// newStore picks the fragment cache backend. ready reports whether the
// backend is reachable.
func newStore(ctx context.Context, cfg Config) (cache.Store, func(context.Context) error, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore(), func(context.Context) error { return nil }, func() {}, nil
	}

	opts := &redis.Options{Addr: cfg.RedisURL}
	if strings.Contains(cfg.RedisURL, "://") {
		var err error
		if opts, err = redis.ParseURL(cfg.RedisURL); err != nil {
			return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
	}
	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Dur("ttl", cfg.CacheTTL).Msg("Using Redis fragment cache")

	ready := func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	return cache.NewRedisStore(redisClient, cfg.CacheTTL), ready, func() { redisClient.Close() }, nil
}

type outcome struct {
	engine  *engine.Engine
	browser *history.MemoryBrowser
	cycle   *engine.Cycle

	warmed  []prefetch.Result
	warmErr error
}

// render loads the listing page and runs one render cycle for cfg: the
// checked controls when any are given, the query otherwise. With a pill
// index set the pill is removed from the result in a second cycle.
func render(ctx context.Context, cfg Config, fetcher *fetch.Fetcher) (*outcome, error) {
	body, err := fetcher.Fetch(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load listing page: %w", err)
	}
	page, err := dom.ParsePage(body)
	if err != nil {
		return nil, err
	}

	browser := history.NewMemoryBrowser(cfg.Path, "")
	hist := history.NewController(browser, "")
	browser.Bind(hist)

	ecfg := engine.DefaultConfig(cfg.Path)
	ecfg.Stale = cfg.Stale
	ecfg.Reconcile = cfg.Reconcile
	e, err := engine.New(ecfg, page, fetcher, hist)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	e.ListenHistory(ctx)

	viewMode := widgets.NewViewMode(widgets.DefaultViewModeConfig(), nil, nil, &widgets.ScrollTrigger{})
	e.AddGridHook(viewMode.Hook)
	page.Do(func(d *dom.Doc) { viewMode.Apply(d, false) })

	q := cfg.Query
	if len(cfg.Checks) > 0 {
		if q, err = checkedQuery(ctx, e, cfg.Checks); err != nil {
			return nil, err
		}
	}

	cycle := e.Render(ctx, q, nil, true)
	cycle.Wait()

	if cfg.Remove >= 0 {
		if cycle, err = form.NewRemovableFacet(e).ActivateElement(ctx, cfg.Remove); err != nil {
			return nil, err
		}
		cycle.Wait()
	}

	return &outcome{engine: e, browser: browser, cycle: cycle}, nil
}

// checkedQuery checks name=value controls of the desktop filter form and
// returns the query the form submits.
func checkedQuery(ctx context.Context, e *engine.Engine, checks []string) (string, error) {
	var missing []string
	e.Page().Do(func(d *dom.Doc) {
		f := d.ByID(form.FiltersFormID)
		for _, check := range checks {
			name, value, _ := strings.Cut(check, "=")
			if !dom.SetChecked(f, name, value, true) {
				missing = append(missing, check)
			}
		}
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("no filter control for %s", strings.Join(missing, ", "))
	}
	return form.NewController(ctx, e, form.DefaultConfig(form.FiltersFormID)).Query(form.InputEvent{}), nil
}

// warm prefetches the fragments of every query one checkbox away from the
// rendered result.
func warm(ctx context.Context, cfg Config, fetcher *fetch.Fetcher, out *outcome) ([]prefetch.Result, error) {
	var queries []string
	out.engine.Page().Do(func(d *dom.Doc) {
		queries = prefetch.Candidates(d, form.FiltersFormID, out.cycle.Query)
	})
	urls := prefetch.URLs(cfg.Path, out.engine.Sections(), queries)
	return prefetch.New(fetcher, cfg.Prefetch).Warm(ctx, urls)
}

func printSummary(w io.Writer, out *outcome) {
	fmt.Fprintf(w, "query: %s\n", out.cycle.Query)
	fmt.Fprintf(w, "history: %s\n", out.browser.Current().URL)

	for _, r := range out.cycle.Results() {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "section %s: failed: %v\n", r.Section.SectionID, r.Err)
		case r.Stale:
			fmt.Fprintf(w, "section %s: stale\n", r.Section.SectionID)
		default:
			applied := make([]string, len(r.Report.Applied))
			for i, region := range r.Report.Applied {
				applied[i] = string(region)
			}
			fmt.Fprintf(w, "section %s: applied %s\n", r.Section.SectionID, strings.Join(applied, ", "))
			for _, skipped := range r.Report.Skipped {
				fmt.Fprintf(w, "  skipped %v\n", skipped)
			}
		}
	}

	out.engine.Page().Do(func(d *dom.Doc) {
		fmt.Fprintf(w, "count: %s\n", strings.TrimSpace(d.ByID(reconcile.CountID).Text()))
		pills := d.Find(".active-facets-desktop " + reconcile.RemovePillSelector).Map(func(_ int, s *goquery.Selection) string {
			return strings.TrimSpace(s.Text())
		})
		fmt.Fprintf(w, "active filters: %s\n", strings.Join(pills, ", "))
		fmt.Fprintf(w, "grid items: %d\n", d.ByID(reconcile.ProductGridID).Children().Length())
	})

	if out.warmed != nil {
		loaded := 0
		for _, r := range out.warmed {
			if r.Err == nil {
				loaded++
			}
		}
		fmt.Fprintf(w, "prefetched: %d/%d\n", loaded, len(out.warmed))
		if out.warmErr != nil {
			fmt.Fprintf(w, "  %v\n", out.warmErr)
		}
	}

	snapshot, err := metrics.Snapshot("facets_cache_hits_total", "facets_cache_misses_total")
	if err == nil {
		fmt.Fprintf(w, "cache: hits=%.0f misses=%.0f\n",
			snapshot["facets_cache_hits_total"], snapshot["facets_cache_misses_total"])
	}
}

func newServer(cfg Config, fetcher *fetch.Fetcher, ready func(context.Context) error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(ready))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/render", renderHandler(cfg, fetcher))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			http.Error(w, "cache backend unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// renderHandler renders ?q= on a fresh copy of the listing page and
// returns the reconciled document.
func renderHandler(cfg Config, fetcher *fetch.Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		rc := cfg
		rc.Query = r.URL.Query().Get("q")
		rc.Checks = nil
		rc.Remove = -1

		out, err := render(ctx, rc, fetcher)
		if err != nil {
			http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusBadGateway)
			return
		}
		if err := out.cycle.Err(); err != nil {
			http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusBadGateway)
			return
		}

		body, err := out.engine.Page().HTML()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Facets-History", out.browser.Current().URL)
		if _, err := io.WriteString(w, body); err != nil {
			log.Warn().Err(err).Msg("Failed to write response")
		}
	}
}

func serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	server := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving renders")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
