package recgo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/artifact"
	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/diversity"
	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/scoring"

	// Register the retrieval backends.
	_ "github.com/hupe1980/recgo/index/flat"
	_ "github.com/hupe1980/recgo/index/hnsw"
	_ "github.com/hupe1980/recgo/index/ivf"
)

// Status tells a successful result apart from an empty one.
type Status string

const (
	// StatusOK means at least one recommendation was produced.
	StatusOK Status = "ok"
	// StatusEmpty means hard filters removed every retrieved candidate.
	StatusEmpty Status = "empty"
)

// Result is the outcome of one Recommend call.
type Result struct {
	Status          Status                 `json:"status"`
	Mode            model.Mode             `json:"mode"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Stats           scoring.Stats          `json:"stats"`
	Diversity       diversity.Report       `json:"diversity"`
	Index           index.Kind             `json:"index"`
}

// Recommender runs the recommendation pipeline against one static context.
// It is safe for concurrent use.
type Recommender struct {
	sc      *artifact.Context
	builder *query.Builder
	scorer  *scoring.Scorer
	handle  *index.Handle
	opts    options

	// reindexMu serializes rebuilds; readers never take it.
	reindexMu sync.Mutex
}

// New creates a Recommender over sc and builds its index.
func New(ctx context.Context, sc *artifact.Context, optFns ...Option) (*Recommender, error) {
	if sc == nil {
		return nil, model.NewMissingArtifactError("context", "static context is nil", nil)
	}
	opts := applyOptions(optFns)
	if err := opts.validate(); err != nil {
		return nil, err
	}

	builder, err := query.NewBuilder(sc, opts.encoder, func(o *query.Options) { *o = opts.query })
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.New(sc, func(o *scoring.Options) { *o = opts.scoring })
	if err != nil {
		return nil, err
	}

	r := &Recommender{
		sc:      sc,
		builder: builder,
		scorer:  scorer,
		handle:  index.NewHandle(nil),
		opts:    opts,
	}

	idx, err := r.buildIndex(ctx, opts.indexKind, opts.indexConfig)
	if err != nil {
		return nil, err
	}
	r.handle.Swap(idx)
	return r, nil
}

// Open loads the static context from store and creates a Recommender over it.
func Open(ctx context.Context, store blobstore.Store, optFns ...Option) (*Recommender, error) {
	opts := applyOptions(optFns)

	start := time.Now()
	sc, err := artifact.Load(ctx, store, func(o *artifact.LoadOptions) {
		if opts.loadConcurrency > 0 {
			o.Concurrency = opts.loadConcurrency
		}
		o.Observer = func(name string, c artifact.Compression, size int) {
			opts.logger.DebugContext(ctx, "artifact read", "name", name, "compression", c.String(), "bytes", size)
		}
	})
	if err != nil {
		opts.logger.LogArtifactLoad(ctx, 0, 0, 0, time.Since(start), err)
		return nil, err
	}
	opts.logger.LogArtifactLoad(ctx, sc.Len(), sc.TagCount(), sc.Dimension(), time.Since(start), nil)

	return New(ctx, sc, optFns...)
}

// Context returns the static context.
func (r *Recommender) Context() *artifact.Context { return r.sc }

// Index returns the currently published index.
func (r *Recommender) Index() (index.Index, error) { return r.handle.Load() }

// IndexStats describes the currently published index.
func (r *Recommender) IndexStats() (index.Stats, error) {
	idx, err := r.handle.Load()
	if err != nil {
		return index.Stats{}, err
	}
	if sp, ok := idx.(index.StatsProvider); ok {
		return sp.Stats(), nil
	}
	return index.Stats{Kind: idx.Kind(), Dimension: idx.Dimension(), Items: idx.Len()}, nil
}

// Recommend runs the pipeline for in.
//
// A request whose candidates are all removed by hard filters is not an error:
// the result has Status StatusEmpty and no recommendations. Cancellation of
// ctx is honored between stages.
func (r *Recommender) Recommend(ctx context.Context, in *model.Intent) (*Result, error) {
	start := time.Now()
	res, err := r.recommend(ctx, in)

	var status Status
	if res != nil {
		status = res.Status
	}
	elapsed := time.Since(start)
	r.opts.metricsCollector.RecordRecommend(in.Mode(), status, elapsed, err)
	r.opts.logger.LogRecommend(ctx, in.Mode(), len(resultRecommendations(res)), elapsed, err)
	return res, err
}

func (r *Recommender) recommend(ctx context.Context, in *model.Intent) (*Result, error) {
	if in == nil {
		return nil, &model.InvalidIntentError{Field: "mode", Reason: "required"}
	}
	if err := in.Constraints.Validate(); err != nil {
		return nil, err
	}

	q, err := r.builder.Build(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := r.handle.Load()
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	cands, err := r.search(ctx, idx, q, in.Seeds())
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Mode: in.Mode(), Index: idx.Kind()}

	pool, stats, err := r.scorer.Score(ctx, cands, in)
	res.Stats = stats
	r.opts.metricsCollector.RecordFiltered(stats.ByConstraint, stats.ByAvoidTag)
	if errors.Is(err, model.ErrEmptyCandidates) {
		r.opts.logger.LogEmptyResult(ctx, in.Mode(), stats.Retrieved)
		res.Status = StatusEmpty
		res.Recommendations = []model.Recommendation{}
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recs, report, err := diversity.Select(ctx, r.sc, pool, r.opts.selection)
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}

	res.Status = StatusOK
	res.Recommendations = recs
	res.Diversity = report
	return res, nil
}

// search retrieves the candidate pool, excluding the seed items themselves.
func (r *Recommender) search(ctx context.Context, idx index.Index, q []float32, seeds []model.ItemID) ([]model.Candidate, error) {
	var exclude *roaring.Bitmap
	for _, id := range seeds {
		row, ok := r.sc.Row(id)
		if !ok {
			continue
		}
		if exclude == nil {
			exclude = roaring.New()
		}
		exclude.Add(uint32(row))
	}

	start := time.Now()
	cands, err := idx.Search(q, r.opts.topN, index.WithExclude(exclude))
	r.opts.metricsCollector.RecordSearch(idx.Kind(), len(cands), time.Since(start), err)
	r.opts.logger.LogSearch(ctx, r.opts.topN, len(cands), err)
	return cands, err
}

// Reindex builds a fresh index of the given kind out of band and atomically
// publishes it. Requests in flight keep using the index they started with.
// An empty kind rebuilds the current backend. Concurrent calls fail with
// ErrReindexInProgress.
func (r *Recommender) Reindex(ctx context.Context, kind index.Kind, cfgFns ...func(c *index.Config)) error {
	if !r.reindexMu.TryLock() {
		return ErrReindexInProgress
	}
	defer r.reindexMu.Unlock()

	var from index.Kind
	if cur, err := r.handle.Load(); err == nil {
		from = cur.Kind()
	}
	if kind == "" {
		kind = from
	}

	cfg := r.opts.indexConfig
	for _, fn := range cfgFns {
		fn(&cfg)
	}

	idx, err := r.buildIndex(ctx, kind, cfg)
	if err != nil {
		return err
	}
	r.handle.Swap(idx)

	r.opts.indexKind = kind
	r.opts.indexConfig = cfg
	r.opts.logger.LogIndexSwap(ctx, from, kind)
	return nil
}

func (r *Recommender) buildIndex(ctx context.Context, kind index.Kind, cfg index.Config) (index.Index, error) {
	cfg.Dimension = r.sc.Dimension()

	start := time.Now()
	idx, err := index.New(kind, cfg)
	if err == nil {
		err = idx.Build(ctx, r.sc.ItemVectors(), r.sc.IDs())
	}
	elapsed := time.Since(start)

	r.opts.metricsCollector.RecordIndexBuild(kind, r.sc.Len(), elapsed, err)
	r.opts.logger.LogIndexBuild(ctx, kind, r.sc.Len(), elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("index build: %w", err)
	}
	return idx, nil
}

func resultRecommendations(res *Result) []model.Recommendation {
	if res == nil {
		return nil
	}
	return res.Recommendations
}
