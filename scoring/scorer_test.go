package scoring

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/artifact"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/testutil"
)

func allCandidates(sc *artifact.Context) []model.Candidate {
	out := make([]model.Candidate, sc.Len())
	for r := range out {
		out[r] = model.Candidate{ID: sc.ID(model.Row(r)), Row: model.Row(r), Similarity: float32(r) / 100}
	}
	return out
}

func ids(pool []model.ScoredCandidate) []model.ItemID {
	out := make([]model.ItemID, len(pool))
	for i, c := range pool {
		out[i] = c.ID
	}
	return out
}

func byID(pool []model.ScoredCandidate, id model.ItemID) (model.ScoredCandidate, bool) {
	i := slices.IndexFunc(pool, func(c model.ScoredCandidate) bool { return c.ID == id })
	if i < 0 {
		return model.ScoredCandidate{}, false
	}
	return pool[i], true
}

func fptr(v float64) *float64 { return &v }
func bptr(v bool) *bool       { return &v }

func TestScore_HardFilters(t *testing.T) {
	sc := testutil.FixtureContext()
	s, err := New(sc)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name     string
		intent   *model.Intent
		excluded []model.ItemID
		kept     []model.ItemID
	}{
		{
			name:     "PriceMax",
			intent:   &model.Intent{Constraints: model.Constraints{PriceMax: fptr(60)}},
			excluded: []model.ItemID{2000, 2001},
			kept:     []model.ItemID{730, 1245620, 289070},
		},
		{
			name:     "PriceMin",
			intent:   &model.Intent{Constraints: model.Constraints{PriceMin: fptr(20)}},
			excluded: []model.ItemID{730, 240, 1794680},
			kept:     []model.ItemID{2000, 292030, 282140},
		},
		{
			name:     "Platform",
			intent:   &model.Intent{Constraints: model.Constraints{Platform: "Mac"}},
			excluded: []model.ItemID{730, 240},
			kept:     []model.ItemID{10, 620, 1794680},
		},
		{
			name:     "Multiplayer",
			intent:   &model.Intent{Constraints: model.Constraints{Multiplayer: bptr(false)}},
			excluded: []model.ItemID{730, 440},
			kept:     []model.ItemID{400, 292030},
		},
		{
			name:     "AvoidTagAnyOverlap",
			intent:   &model.Intent{AvoidTags: []string{"casual"}},
			excluded: []model.ItemID{440, 620, 739630, 413150, 1794680},
			kept:     []model.ItemID{730, 400},
		},
		{
			name:     "UnknownAvoidTag",
			intent:   &model.Intent{AvoidTags: []string{"sports"}},
			excluded: nil,
			kept:     []model.ItemID{730, 440},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, stats, err := s.Score(ctx, allCandidates(sc), tt.intent)
			require.NoError(t, err)

			got := ids(pool)
			for _, id := range tt.excluded {
				assert.NotContains(t, got, id)
			}
			for _, id := range tt.kept {
				assert.Contains(t, got, id)
			}
			assert.Equal(t, stats.Retrieved, stats.Kept+stats.Filtered())
			assert.Equal(t, len(pool), stats.Kept)
		})
	}
}

func TestScore_AvoidThreshold(t *testing.T) {
	sc := testutil.FixtureContext()
	s, err := New(sc, func(o *Options) { o.AvoidTagThreshold = 0.4 })
	require.NoError(t, err)

	pool, stats, err := s.Score(context.Background(), allCandidates(sc), &model.Intent{AvoidTags: []string{"casual"}})
	require.NoError(t, err)

	got := ids(pool)
	// 440 is 1/3 casual, 620 is 1/2 casual.
	assert.Contains(t, got, model.ItemID(440))
	assert.NotContains(t, got, model.ItemID(620))
	assert.Equal(t, 3, stats.ByAvoidTag)
}

func TestScore_Components(t *testing.T) {
	sc := testutil.FixtureContext()
	s, err := New(sc)
	require.NoError(t, err)

	pool, stats, err := s.Score(context.Background(), allCandidates(sc), &model.Intent{TargetTags: []string{"action", "shooter"}})
	require.NoError(t, err)
	require.Len(t, pool, sc.Len())

	get := func(id model.ItemID) model.Scores {
		c, ok := byID(pool, id)
		require.True(t, ok)
		return c.Scores
	}

	assert.InDelta(t, 1, get(730).TagMatch, 1e-12)
	assert.InDelta(t, 0, get(620).TagMatch, 1e-12)
	assert.InDelta(t, 0.7071067811865476, get(1245620).TagMatch, 1e-12)

	// Weights span 0.30 (2001) .. 0.95 (730).
	assert.InDelta(t, 1, get(730).Popularity, 1e-6)
	assert.InDelta(t, 0, get(2001).Popularity, 1e-6)
	assert.InDelta(t, 1, get(2001).Novelty, 1e-6)

	// Releases span 2000-11-01 (10) .. 2024-03-01 (2000).
	assert.InDelta(t, 0, get(10).Recency, 1e-12)
	assert.InDelta(t, 1, get(2000).Recency, 1e-12)

	for _, c := range pool {
		sc := c.Scores
		for _, v := range []float64{sc.TagMatch, sc.Novelty, sc.Recency, sc.Popularity} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		w := model.DefaultScoringWeights
		assert.InDelta(t, w.Alpha*sc.TagMatch+w.Beta*sc.Novelty+w.Gamma*sc.Recency+w.Delta*sc.Popularity, sc.Final, 1e-12)
	}

	assert.True(t, slices.IsSortedFunc(pool, model.CompareScored))
	assert.InDelta(t, 1, stats.TagMatch.Max, 1e-12)
	assert.InDelta(t, 0, stats.TagMatch.Min, 1e-12)
}

func TestScore_ZeroWeights(t *testing.T) {
	sc := testutil.FixtureContext()
	s, err := New(sc, func(o *Options) { o.Weights = model.ScoringWeights{} })
	require.NoError(t, err)

	pool, _, err := s.Score(context.Background(), allCandidates(sc), &model.Intent{TargetTags: []string{"horror"}})
	require.NoError(t, err)

	for _, c := range pool {
		assert.Equal(t, 0.0, c.Scores.Final)
	}
	got := ids(pool)
	assert.True(t, slices.IsSorted(got))
}

func TestScore_NeutralDefaults(t *testing.T) {
	p := testutil.FixtureParams()
	p.Items = nil
	for i := range p.Weights {
		p.Weights[i] = 1
	}
	sc, err := artifact.New(p)
	require.NoError(t, err)

	s, err := New(sc)
	require.NoError(t, err)

	pool, _, err := s.Score(context.Background(), allCandidates(sc), &model.Intent{
		Constraints: model.Constraints{PriceMax: fptr(1), Platform: "switch"},
	})
	require.NoError(t, err)
	require.Len(t, pool, sc.Len())

	for _, c := range pool {
		assert.Equal(t, 0.5, c.Scores.Recency)
		assert.Equal(t, 0.5, c.Scores.Popularity)
		assert.Equal(t, 0.5, c.Scores.Novelty)
		assert.Equal(t, 0.0, c.Scores.TagMatch)
	}
}

func TestScore_Empty(t *testing.T) {
	sc := testutil.FixtureContext()
	s, err := New(sc)
	require.NoError(t, err)

	pool, stats, err := s.Score(context.Background(), allCandidates(sc), &model.Intent{
		Constraints: model.Constraints{Platform: "playstation"},
	})
	assert.Nil(t, pool)
	assert.ErrorIs(t, err, model.ErrEmptyCandidates)

	var ee *model.EmptyCandidateError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, sc.Len(), ee.Retrieved)
	assert.Equal(t, sc.Len(), stats.ByConstraint)

	_, _, err = s.Score(context.Background(), nil, &model.Intent{})
	assert.ErrorIs(t, err, model.ErrEmptyCandidates)
}

func TestScore_InvalidConstraints(t *testing.T) {
	sc := testutil.FixtureContext()
	s, err := New(sc)
	require.NoError(t, err)

	_, _, err = s.Score(context.Background(), allCandidates(sc), &model.Intent{
		Constraints: model.Constraints{PriceMin: fptr(50), PriceMax: fptr(10)},
	})
	assert.ErrorIs(t, err, model.ErrInvalidIntent)
}

func TestScore_ParallelMatchesSequential(t *testing.T) {
	const n, dim = 1500, 8

	rng := testutil.NewRNG(3)
	p := artifact.Params{
		ItemIDs:     testutil.SequentialIDs(n, 1),
		ItemVectors: rng.UnitVectors(n, dim),
		TagNames:    []string{"a", "b", "c"},
		TagVectors:  rng.UnitVectors(3, dim),
		Weights:     make([]float32, n),
		Items:       make(map[model.ItemID]*artifact.Item, n),
	}
	rowTags := make([][]uint32, n)
	for i := range n {
		p.Weights[i] = rng.Float32()
		rowTags[i] = []uint32{uint32(i % 3)}
		price := float64(rng.Intn(100))
		p.Items[p.ItemIDs[i]] = &artifact.Item{
			Price:       &price,
			ReleaseDate: fmt.Sprintf("20%02d-01-01", rng.Intn(25)),
		}
	}
	inc, err := artifact.NewIncidence(n, 3, rowTags)
	require.NoError(t, err)
	p.Incidence = inc

	sc, err := artifact.New(p)
	require.NoError(t, err)

	in := &model.Intent{
		TargetTags:  []string{"a"},
		AvoidTags:   []string{"c"},
		Constraints: model.Constraints{PriceMax: fptr(80)},
	}

	seq, err := New(sc, func(o *Options) { o.Workers = 1 })
	require.NoError(t, err)
	par, err := New(sc, func(o *Options) { o.Workers = 8 })
	require.NoError(t, err)

	a, sa, err := seq.Score(context.Background(), allCandidates(sc), in)
	require.NoError(t, err)
	b, sb, err := par.Score(context.Background(), allCandidates(sc), in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, sa, sb)
}

func TestScore_Cancelled(t *testing.T) {
	sc := testutil.FixtureContext()
	s, err := New(sc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = s.Score(ctx, allCandidates(sc), &model.Intent{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidOptions(t *testing.T) {
	sc := testutil.FixtureContext()

	_, err := New(sc, func(o *Options) { o.AvoidTagThreshold = 1 })
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = New(sc, func(o *Options) { o.Weights.Beta = -1 })
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
