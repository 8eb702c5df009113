// Package metrics is the catalogue of the engine's Prometheus metrics.
// The metrics themselves are defined in their packages (cache, fetch,
// reconcile, engine, history) and registered via promauto.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry is the registerer all engine metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the registered metrics back.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Snapshot returns the current value of each named counter or gauge,
// summed over all label sets. Histograms report their sample count.
// Names that have not been registered or observed are absent.
func Snapshot(names ...string) (map[string]float64, error) {
	families, err := Gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	out := make(map[string]float64, len(names))
	for _, mf := range families {
		if !wanted[mf.GetName()] {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += value(mf.GetType(), m)
		}
		out[mf.GetName()] = sum
	}
	return out, nil
}

func value(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - facets_cache_hits_total{store} (Counter): Fragment cache hits by store (memory, redis)
//   - facets_cache_misses_total{store} (Counter): Fragment cache misses
//   - facets_cache_entries{store} (Gauge): Entries written
//   - facets_cache_size_bytes{store} (Gauge): Bytes of fragment HTML written
//   - facets_cache_errors_total{store, operation} (Counter): Store errors
//
// Fetch Metrics (pkg/fetch):
//   - facets_fetch_requests_total{source, status} (Counter): Loads by source (cache, network) and status
//   - facets_fetch_duration_seconds (Histogram): Network fetch duration
//   - facets_fetch_errors_total{class} (Counter): Failures by class (network, client, server)
//
// Reconcile Metrics (pkg/reconcile):
//   - facets_region_applied_total{region, strategy} (Counter): Regions reconciled
//   - facets_region_skipped_total{region} (Counter): Regions skipped on missing nodes
//
// Render Metrics (pkg/engine):
//   - facets_render_cycles_total{update_history} (Counter): Render cycles started
//   - facets_render_sections_total{outcome} (Counter): Sections settled (applied, failed, stale)
//   - facets_render_cycle_duration_seconds (Histogram): Render start to last section settled
//
// History Metrics (pkg/history):
//   - facets_history_commits_total (Counter): History entries pushed
//   - facets_history_popstate_total{outcome} (Counter): Back/forward events by outcome
//
// Example Prometheus Queries:
//
//   # Fragment Cache Hit Rate
//   sum(rate(facets_cache_hits_total[5m])) /
//   (sum(rate(facets_cache_hits_total[5m])) + sum(rate(facets_cache_misses_total[5m])))
//
//   # Skipped Regions
//   sum by (region) (rate(facets_region_skipped_total[5m]))
//
//   # P95 Render Latency
//   histogram_quantile(0.95, rate(facets_render_cycle_duration_seconds_bucket[5m]))
