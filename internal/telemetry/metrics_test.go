package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetricsRegisters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.CacheHits.WithLabelValues("user").Inc()
	m.CacheMisses.WithLabelValues("user").Inc()
	m.InvalidatedKeys.WithLabelValues("passenger", "update").Add(4)
	m.WarmedEntries.WithLabelValues("rider").Add(10)
	m.ActiveRequests.Inc()
	m.ActiveRequests.Dec()

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := make(map[string]bool)
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"ridecache_cache_hits_total",
		"ridecache_cache_misses_total",
		"ridecache_invalidated_keys_total",
		"ridecache_warmed_entries_total",
	} {
		if !found[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}
}

func TestNewMetricsDoubleRegisterPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("second registration should panic")
		}
	}()
	NewMetrics(reg)
}
