package recgo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prom package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordRecommend is called after each Recommend call. status is empty
	// when err is non-nil.
	RecordRecommend(mode model.Mode, status Status, duration time.Duration, err error)

	// RecordSearch is called after each retrieval. candidates is the size of
	// the returned pool.
	RecordSearch(kind index.Kind, candidates int, duration time.Duration, err error)

	// RecordFiltered is called after scoring with the number of candidates
	// removed by constraints and by avoid tags.
	RecordFiltered(byConstraint, byAvoidTag int)

	// RecordIndexBuild is called after each index build, including rebuilds.
	RecordIndexBuild(kind index.Kind, items int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecommend(model.Mode, Status, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(index.Kind, int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordFiltered(int, int)                                  {}
func (NoopMetricsCollector) RecordIndexBuild(index.Kind, int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests.
type BasicMetricsCollector struct {
	RecommendCount      atomic.Int64
	RecommendErrors     atomic.Int64
	RecommendEmpty      atomic.Int64
	RecommendTotalNanos atomic.Int64
	SearchCount         atomic.Int64
	SearchErrors        atomic.Int64
	SearchCandidates    atomic.Int64
	SearchTotalNanos    atomic.Int64
	FilteredConstraint  atomic.Int64
	FilteredAvoidTag    atomic.Int64
	IndexBuilds         atomic.Int64
	IndexBuildErrors    atomic.Int64
}

// RecordRecommend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecommend(_ model.Mode, status Status, duration time.Duration, err error) {
	b.RecommendCount.Add(1)
	b.RecommendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RecommendErrors.Add(1)
	}
	if status == StatusEmpty {
		b.RecommendEmpty.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ index.Kind, candidates int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchCandidates.Add(int64(candidates))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordFiltered implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFiltered(byConstraint, byAvoidTag int) {
	b.FilteredConstraint.Add(int64(byConstraint))
	b.FilteredAvoidTag.Add(int64(byAvoidTag))
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(_ index.Kind, _ int, _ time.Duration, err error) {
	b.IndexBuilds.Add(1)
	if err != nil {
		b.IndexBuildErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RecommendCount:     b.RecommendCount.Load(),
		RecommendErrors:    b.RecommendErrors.Load(),
		RecommendEmpty:     b.RecommendEmpty.Load(),
		RecommendAvgNanos:  avg(b.RecommendTotalNanos.Load(), b.RecommendCount.Load()),
		SearchCount:        b.SearchCount.Load(),
		SearchErrors:       b.SearchErrors.Load(),
		SearchAvgNanos:     avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SearchAvgPool:      avg(b.SearchCandidates.Load(), b.SearchCount.Load()),
		FilteredConstraint: b.FilteredConstraint.Load(),
		FilteredAvoidTag:   b.FilteredAvoidTag.Load(),
		IndexBuilds:        b.IndexBuilds.Load(),
		IndexBuildErrors:   b.IndexBuildErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RecommendCount     int64
	RecommendErrors    int64
	RecommendEmpty     int64
	RecommendAvgNanos  int64
	SearchCount        int64
	SearchErrors       int64
	SearchAvgNanos     int64
	SearchAvgPool      int64
	FilteredConstraint int64
	FilteredAvoidTag   int64
	IndexBuilds        int64
	IndexBuildErrors   int64
}
