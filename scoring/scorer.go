package scoring

import (
	"context"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/recgo/artifact"
	"github.com/hupe1980/recgo/model"
)

// parallelThreshold is the pool size below which scoring runs on one goroutine.
const parallelThreshold = 512

// Options configures a Scorer.
type Options struct {
	Weights model.ScoringWeights
	// AvoidTagThreshold is the largest tolerated share of avoid tags among a
	// candidate's tags. Zero excludes any candidate carrying an avoid tag.
	AvoidTagThreshold float64
	// Workers bounds scoring parallelism. Zero or one scores sequentially.
	Workers int
}

// DefaultOptions for a Scorer.
var DefaultOptions = Options{
	Weights:           model.DefaultScoringWeights,
	AvoidTagThreshold: 0,
	Workers:           4,
}

// Scorer filters and scores candidates against a static context.
type Scorer struct {
	sc   *artifact.Context
	opts Options
}

// New creates a Scorer.
func New(sc *artifact.Context, optFns ...func(o *Options)) (*Scorer, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(opts.AvoidTagThreshold) || opts.AvoidTagThreshold < 0 || opts.AvoidTagThreshold >= 1 {
		return nil, &model.ConfigurationError{Option: "scoring.avoid_tag_threshold", Value: opts.AvoidTagThreshold, Reason: "must be in [0,1)"}
	}
	return &Scorer{sc: sc, opts: opts}, nil
}

// Weights returns the configured weights.
func (s *Scorer) Weights() model.ScoringWeights { return s.opts.Weights }

// request is the per-call state derived from the intent.
type request struct {
	constraints model.Constraints
	targets     *roaring.Bitmap
	avoid       *roaring.Bitmap
	targetCount int
}

func (s *Scorer) newRequest(in *model.Intent) *request {
	r := &request{
		constraints: in.Constraints,
		targets:     roaring.New(),
		avoid:       roaring.New(),
	}
	for _, t := range in.TargetTags {
		if c, ok := s.sc.TagIndex(t); ok {
			r.targets.Add(uint32(c))
		}
	}
	for _, t := range in.AvoidTags {
		if c, ok := s.sc.TagIndex(t); ok {
			r.avoid.Add(uint32(c))
		}
	}
	r.targetCount = int(r.targets.GetCardinality())
	return r
}

// verdict is the filtering outcome of one candidate.
type verdict uint8

const (
	keep verdict = iota
	byConstraint
	byAvoidTag
)

// Score filters cands and returns the survivors ordered by descending final
// score, ties broken by ascending item id.
//
// When every candidate is filtered out the error is a *model.EmptyCandidateError
// and the returned Stats still describe the filtering.
func (s *Scorer) Score(ctx context.Context, cands []model.Candidate, in *model.Intent) ([]model.ScoredCandidate, Stats, error) {
	stats := Stats{Retrieved: len(cands)}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if in == nil {
		in = &model.Intent{}
	}
	if err := in.Constraints.Validate(); err != nil {
		return nil, stats, err
	}

	req := s.newRequest(in)

	verdicts := make([]verdict, len(cands))
	if err := s.forEach(ctx, len(cands), func(i int) {
		verdicts[i] = s.filter(req, cands[i].Row)
	}); err != nil {
		return nil, stats, err
	}

	kept := make([]model.ScoredCandidate, 0, len(cands))
	for i, v := range verdicts {
		switch v {
		case byConstraint:
			stats.ByConstraint++
		case byAvoidTag:
			stats.ByAvoidTag++
		default:
			c := cands[i]
			kept = append(kept, model.ScoredCandidate{ID: c.ID, Row: c.Row, Similarity: c.Similarity})
		}
	}
	stats.Kept = len(kept)
	if len(kept) == 0 {
		return nil, stats, &model.EmptyCandidateError{Retrieved: len(cands)}
	}

	lo, hi := s.weightRange(kept)
	if err := s.forEach(ctx, len(kept), func(i int) {
		kept[i].Scores = s.components(req, kept[i].Row, lo, hi)
	}); err != nil {
		return nil, stats, err
	}

	slices.SortStableFunc(kept, model.CompareScored)
	stats.observe(kept)
	return kept, stats, nil
}

// filter applies the hard filters to one row.
func (s *Scorer) filter(req *request, row model.Row) verdict {
	if violates(req.constraints, s.sc.Item(row)) {
		return byConstraint
	}
	if !req.avoid.IsEmpty() {
		inc := s.sc.Incidence()
		if total := inc.TagCount(row); total > 0 {
			share := float64(inc.Overlap(row, req.avoid)) / float64(total)
			if share > s.opts.AvoidTagThreshold {
				return byAvoidTag
			}
		}
	}
	return keep
}

// violates reports whether known attributes of it break c.
func violates(c model.Constraints, it *artifact.Item) bool {
	if it == nil {
		return false
	}
	if it.Price != nil {
		if c.PriceMax != nil && *it.Price > *c.PriceMax {
			return true
		}
		if c.PriceMin != nil && *it.Price < *c.PriceMin {
			return true
		}
	}
	if c.Platform != "" && len(it.Platforms) > 0 && !it.HasPlatform(c.Platform) {
		return true
	}
	if c.Language != "" && len(it.Languages) > 0 && !it.HasLanguage(c.Language) {
		return true
	}
	if c.Multiplayer != nil && it.Multiplayer != nil && *c.Multiplayer != *it.Multiplayer {
		return true
	}
	if c.Singleplayer != nil && it.Singleplayer != nil && *c.Singleplayer != *it.Singleplayer {
		return true
	}
	if c.AgeRatingMax != nil && it.AgeRating != nil && *it.AgeRating > *c.AgeRatingMax {
		return true
	}
	return false
}

func (s *Scorer) weightRange(pool []model.ScoredCandidate) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range pool {
		w := float64(s.sc.Weight(c.Row))
		lo = min(lo, w)
		hi = max(hi, w)
	}
	return lo, hi
}

func (s *Scorer) components(req *request, row model.Row, lo, hi float64) model.Scores {
	var sc model.Scores

	if req.targetCount > 0 {
		overlap := s.sc.Incidence().Overlap(row, req.targets)
		sc.TagMatch = clamp01(math.Sqrt(float64(overlap) / float64(req.targetCount)))
	}

	sc.Popularity = 0.5
	if hi > lo {
		sc.Popularity = clamp01((float64(s.sc.Weight(row)) - lo) / (hi - lo))
	}
	sc.Novelty = clamp01(1 - sc.Popularity)
	sc.Recency = s.recency(row)

	w := s.opts.Weights
	sc.Final = w.Alpha*sc.TagMatch + w.Beta*sc.Novelty + w.Gamma*sc.Recency + w.Delta*sc.Popularity
	return sc
}

// recency maps the release date linearly onto the catalog's release range.
func (s *Scorer) recency(row model.Row) float64 {
	released, ok := s.sc.Item(row).Released()
	if !ok {
		return 0.5
	}
	earliest, latest, ok := s.sc.ReleaseRange()
	if !ok || !latest.After(earliest) {
		return 0.5
	}
	span := latest.Sub(earliest).Hours()
	return clamp01(released.Sub(earliest).Hours() / span)
}

// forEach runs fn for every index in [0,n), in parallel for large n.
// Every index is written by exactly one goroutine.
func (s *Scorer) forEach(ctx context.Context, n int, fn func(i int)) error {
	workers := s.opts.Workers
	if workers <= 1 || n < parallelThreshold {
		for i := range n {
			fn(i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return gctx.Err()
		})
	}
	return g.Wait()
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
