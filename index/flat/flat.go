// Package flat provides the exact index: an exhaustive inner-product scan
// over every item. It is the correctness oracle for the approximate backends.
package flat

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
)

// Compile-time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

func init() {
	index.Register(index.KindExact, func(cfg index.Config) (index.Index, error) {
		return New(func(o *Options) {
			o.Dimension = cfg.Dimension
			o.Workers = cfg.Workers
		})
	})
}

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	Dimension int

	// Workers bounds scan parallelism. Zero means GOMAXPROCS.
	Workers int
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{}

// Flat is an exact index. The matrix is published once at the end of Build;
// searches read it without locking.
type Flat struct {
	opts    Options
	matrix  atomic.Pointer[index.Matrix]
	buildMu sync.Mutex
}

// New creates an unbuilt flat index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Dimension <= 0 {
		return nil, &model.ConfigurationError{Option: "dimension", Value: opts.Dimension, Reason: "must be positive"}
	}
	return &Flat{opts: opts}, nil
}

func (*Flat) Kind() index.Kind { return index.KindExact }

func (f *Flat) Dimension() int { return f.opts.Dimension }

func (f *Flat) Len() int {
	if m := f.matrix.Load(); m != nil {
		return m.Len()
	}
	return 0
}

// Build stores normalized copies of vectors.
func (f *Flat) Build(ctx context.Context, vectors [][]float32, ids []model.ItemID) error {
	f.buildMu.Lock()
	defer f.buildMu.Unlock()

	if f.matrix.Load() != nil {
		return index.ErrAlreadyBuilt
	}
	m, err := index.NewMatrix(ctx, f.opts.Dimension, vectors, ids)
	if err != nil {
		return err
	}
	f.matrix.Store(m)
	return nil
}

// Search ranks every item against query.
func (f *Flat) Search(query []float32, topN int, opts ...index.SearchOption) ([]model.Candidate, error) {
	m := f.matrix.Load()
	if m == nil {
		return nil, model.ErrIndexNotReady
	}
	if err := index.ValidateQuery(f.opts.Dimension, query, topN); err != nil {
		return nil, err
	}
	if topN == 0 {
		return []model.Candidate{}, nil
	}

	q := index.NormalizeQuery(query)
	so := index.ApplySearchOptions(opts)
	return index.ToCandidates(m.ParallelScan(q, topN, f.opts.Workers, so)), nil
}
