// Package ivf implements an inverted-file index: items are grouped into
// partitions by spherical k-means and a query scans only the partitions whose
// centroids are most similar to it.
package ivf

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/internal/kmeans"
	"github.com/hupe1980/recgo/model"
)

const (
	// DefaultProbes is the default number of partitions scanned per query.
	DefaultProbes = 8

	// maxAutoPartitions caps the automatic partition count.
	maxAutoPartitions = 100

	// itemsPerPartition is the target partition size of the automatic count.
	itemsPerPartition = 10

	trainIterations = 25
)

var _ index.Index = (*IVF)(nil)

func init() {
	index.Register(index.KindPartitioned, func(cfg index.Config) (index.Index, error) {
		return New(func(o *Options) {
			o.Dimension = cfg.Dimension
			o.Partitions = cfg.Partitions
			o.Probes = cfg.Probes
			o.Seed = cfg.Seed
			o.Workers = cfg.Workers
		})
	})
}

// Options configures the partitioned index.
type Options struct {
	Dimension int

	// Partitions is the number of k-means partitions. Zero selects
	// min(100, N/10), at least 1.
	Partitions int

	// Probes is the number of partitions scanned per query. More partitions
	// are scanned when the probed ones hold fewer than topN eligible items.
	Probes int

	Seed    int64
	Workers int
}

// DefaultOptions holds the partitioning parameters used when none are given.
var DefaultOptions = Options{
	Probes: DefaultProbes,
	Seed:   42,
}

type state struct {
	matrix    *index.Matrix
	centroids []float32
	lists     [][]model.Row
}

// IVF is the partitioned index.
type IVF struct {
	opts    Options
	st      atomic.Pointer[state]
	buildMu sync.Mutex
}

// New creates an unbuilt partitioned index.
func New(optFns ...func(o *Options)) (*IVF, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	switch {
	case opts.Dimension <= 0:
		return nil, &model.ConfigurationError{Option: "dimension", Value: opts.Dimension, Reason: "must be positive"}
	case opts.Partitions < 0:
		return nil, &model.ConfigurationError{Option: "partitions", Value: opts.Partitions, Reason: "must not be negative"}
	case opts.Probes < 1:
		return nil, &model.ConfigurationError{Option: "probes", Value: opts.Probes, Reason: "must be positive"}
	}
	return &IVF{opts: opts}, nil
}

func (*IVF) Kind() index.Kind { return index.KindPartitioned }

func (f *IVF) Dimension() int { return f.opts.Dimension }

func (f *IVF) Len() int {
	if st := f.st.Load(); st != nil {
		return st.matrix.Len()
	}
	return 0
}

// AutoPartitions is the partition count used when none is configured.
func AutoPartitions(n int) int {
	return max(1, min(maxAutoPartitions, n/itemsPerPartition))
}

// Build trains the partitions and assigns every row to its closest centroid.
func (f *IVF) Build(ctx context.Context, vectors [][]float32, ids []model.ItemID) error {
	f.buildMu.Lock()
	defer f.buildMu.Unlock()

	if f.st.Load() != nil {
		return index.ErrAlreadyBuilt
	}

	m, err := index.NewMatrix(ctx, f.opts.Dimension, vectors, ids)
	if err != nil {
		return err
	}

	k := f.opts.Partitions
	if k == 0 {
		k = AutoPartitions(m.Len())
	}

	centroids, assignments, err := kmeans.Train(ctx, m.Data(), f.opts.Dimension, kmeans.Config{
		K:       k,
		MaxIter: trainIterations,
		Seed:    f.opts.Seed,
		Workers: f.opts.Workers,
	})
	if err != nil {
		return err
	}

	lists := make([][]model.Row, len(centroids)/f.opts.Dimension)
	for row, p := range assignments {
		lists[p] = append(lists[p], model.Row(row))
	}

	f.st.Store(&state{matrix: m, centroids: centroids, lists: lists})
	return nil
}

// Search scans the closest partitions exhaustively.
func (f *IVF) Search(query []float32, topN int, opts ...index.SearchOption) ([]model.Candidate, error) {
	st := f.st.Load()
	if st == nil {
		return nil, model.ErrIndexNotReady
	}
	if err := index.ValidateQuery(f.opts.Dimension, query, topN); err != nil {
		return nil, err
	}
	if topN == 0 || st.matrix.Len() == 0 {
		return []model.Candidate{}, nil
	}

	q := index.NormalizeQuery(query)
	so := index.ApplySearchOptions(opts)

	order := kmeans.Closest(q, st.centroids, f.opts.Dimension, len(st.lists))

	var rows []model.Row
	eligible := 0
	for i, p := range order {
		if i >= f.opts.Probes && eligible >= topN {
			break
		}
		for _, r := range st.lists[p] {
			rows = append(rows, r)
			if !so.Excluded(r) {
				eligible++
			}
		}
	}

	return index.ToCandidates(st.matrix.ScanRows(q, rows, topN, so)), nil
}

// Stats describes the partitions.
func (f *IVF) Stats() index.Stats {
	s := index.Stats{Kind: index.KindPartitioned, Dimension: f.opts.Dimension}
	st := f.st.Load()
	if st == nil {
		return s
	}
	s.Items = st.matrix.Len()
	s.Partitions = len(st.lists)
	for _, l := range st.lists {
		s.LargestPartition = max(s.LargestPartition, len(l))
	}
	return s
}
