// Package prom exports recommender metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
)

const namespace = "recgo"

// Collector implements recgo.MetricsCollector on top of Prometheus vectors.
type Collector struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	searchLatency  *prometheus.HistogramVec
	poolSize       prometheus.Histogram
	filtered       *prometheus.CounterVec
	indexBuilds    *prometheus.CounterVec
	indexBuildTime *prometheus.HistogramVec
	indexItems     prometheus.Gauge
	breakerState   prometheus.Gauge
}

var _ recgo.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers it with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Recommend calls by mode and outcome.",
		}, []string{"mode", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end latency of Recommend calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Latency of index retrieval.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"index", "status"}),
		poolSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_pool_size",
			Help:      "Number of candidates returned by retrieval.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filtered_candidates_total",
			Help:      "Candidates removed by hard filters.",
		}, []string{"reason"}),
		indexBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Index builds by backend and outcome.",
		}, []string{"index", "status"}),
		indexBuildTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Duration of index builds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"index"}),
		indexItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_items",
			Help:      "Items in the most recently built index.",
		}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "encoder_breaker_state",
			Help:      "Text encoder circuit breaker state (0 closed, 1 half-open, 2 open).",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.requests, c.latency, c.searchLatency, c.poolSize, c.filtered,
		c.indexBuilds, c.indexBuildTime, c.indexItems, c.breakerState,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRecommend implements recgo.MetricsCollector.
func (c *Collector) RecordRecommend(mode model.Mode, status recgo.Status, d time.Duration, err error) {
	label := string(status)
	if err != nil {
		label = "error"
	}
	c.requests.WithLabelValues(string(mode), label).Inc()
	c.latency.WithLabelValues(string(mode)).Observe(d.Seconds())
}

// RecordSearch implements recgo.MetricsCollector.
func (c *Collector) RecordSearch(kind index.Kind, candidates int, d time.Duration, err error) {
	c.searchLatency.WithLabelValues(string(kind), outcome(err)).Observe(d.Seconds())
	if err == nil {
		c.poolSize.Observe(float64(candidates))
	}
}

// RecordFiltered implements recgo.MetricsCollector.
func (c *Collector) RecordFiltered(byConstraint, byAvoidTag int) {
	c.filtered.WithLabelValues("constraint").Add(float64(byConstraint))
	c.filtered.WithLabelValues("avoid_tag").Add(float64(byAvoidTag))
}

// RecordIndexBuild implements recgo.MetricsCollector.
func (c *Collector) RecordIndexBuild(kind index.Kind, items int, d time.Duration, err error) {
	c.indexBuilds.WithLabelValues(string(kind), outcome(err)).Inc()
	if err != nil {
		return
	}
	c.indexBuildTime.WithLabelValues(string(kind)).Observe(d.Seconds())
	c.indexItems.Set(float64(items))
}

// BreakerStateChange records a text encoder circuit breaker transition.
// It matches the signature of encoder.GuardOptions.OnStateChange.
func (c *Collector) BreakerStateChange(_, to gobreaker.State) {
	c.breakerState.Set(float64(to))
}
