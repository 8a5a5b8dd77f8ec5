package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics receives cache events.
type Metrics interface {
	RecordHit()
	RecordMiss()
	RecordJoin()
	RecordFetch(ok bool)
	RecordRetry()
	RecordDiscarded()
	SetEntries(n int)
}

// NopMetrics discards every event.
type NopMetrics struct{}

func (NopMetrics) RecordHit() {}
func (NopMetrics) RecordMiss() {}
func (NopMetrics) RecordJoin() {}
func (NopMetrics) RecordFetch(bool) {}
func (NopMetrics) RecordRetry() {}
func (NopMetrics) RecordDiscarded() {}
func (NopMetrics) SetEntries(int) {}

// Collector is the Prometheus implementation of Metrics.
type Collector struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	joins     prometheus.Counter
	fetches   *prometheus.CounterVec
	retries   prometheus.Counter
	discarded prometheus.Counter
	entries   prometheus.Gauge
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homes_cache_hits_total",
			Help: "Reads served from a fresh cache entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homes_cache_misses_total",
			Help: "Reads that started a fetch.",
		}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homes_cache_joins_total",
			Help: "Reads that joined a fetch already in flight.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "homes_cache_fetches_total",
			Help: "Completed fetches by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homes_cache_retries_total",
			Help: "Fetch attempts repeated after a retryable failure.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homes_cache_discarded_total",
			Help: "Fetch results dropped because a newer fetch superseded them.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "homes_cache_entries",
			Help: "Number of keys held by the cache.",
		}),
	}

	reg.MustRegister(c.hits, c.misses, c.joins, c.fetches, c.retries, c.discarded, c.entries)
	return c
}

func (c *Collector) RecordHit() { c.hits.Inc() }
func (c *Collector) RecordMiss() { c.misses.Inc() }
func (c *Collector) RecordJoin() { c.joins.Inc() }

func (c *Collector) RecordFetch(ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	c.fetches.WithLabelValues(result).Inc()
}

func (c *Collector) RecordRetry() { c.retries.Inc() }
func (c *Collector) RecordDiscarded() { c.discarded.Inc() }
func (c *Collector) SetEntries(n int) { c.entries.Set(float64(n)) }
