package diversity

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/testutil"
)

type matrix [][]float32

func (m matrix) ItemVector(row model.Row) []float32 { return m[row] }

type countingVectors struct {
	matrix
	calls atomic.Int64
}

func (c *countingVectors) ItemVector(row model.Row) []float32 {
	c.calls.Add(1)
	return c.matrix[row]
}

func pool(finals ...float64) []model.ScoredCandidate {
	out := make([]model.ScoredCandidate, len(finals))
	for i, f := range finals {
		out[i] = model.ScoredCandidate{
			ID:     model.ItemID(100 - i),
			Row:    model.Row(i),
			Scores: model.Scores{Final: f, Novelty: f / 2},
		}
	}
	return out
}

func recIDs(recs []model.Recommendation) []model.ItemID {
	out := make([]model.ItemID, len(recs))
	for i, r := range recs {
		out[i] = r.ItemID
	}
	return out
}

func TestSelect_LambdaOneIsTopK(t *testing.T) {
	rng := testutil.NewRNG(11)
	vecs := matrix(rng.UnitVectors(50, 8))

	p := make([]model.ScoredCandidate, 50)
	for i := range p {
		p[i] = model.ScoredCandidate{
			ID:     model.ItemID(rng.Intn(1000)),
			Row:    model.Row(i),
			Scores: model.Scores{Final: float64(rng.Intn(5)) / 4},
		}
	}

	recs, _, err := Select(context.Background(), vecs, p, Options{K: 20, Lambda: 1})
	require.NoError(t, err)

	sorted := slices.Clone(p)
	slices.SortStableFunc(sorted, model.CompareScored)

	want := make([]model.ItemID, 20)
	for i := range want {
		want[i] = sorted[i].ID
	}
	assert.Equal(t, want, recIDs(recs))
}

func TestSelect_WholePool(t *testing.T) {
	vecs := matrix{{1, 0}, {0, 1}, {1, 1}}
	p := pool(0.2, 0.9, 0.5)

	recs, _, err := Select(context.Background(), vecs, p, Options{K: 10, Lambda: 0.5})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	for i, r := range recs {
		assert.Equal(t, i+1, r.Rank)
	}
	assert.ElementsMatch(t, []model.ItemID{100, 99, 98}, recIDs(recs))
	assert.Equal(t, model.ItemID(99), recs[0].ItemID)
}

func TestSelect_Redundancy(t *testing.T) {
	// Rows 0 and 1 are near-duplicates; row 2 is orthogonal but less relevant.
	vecs := matrix{{1, 0}, {0.99, 0.01}, {0, 1}}
	p := pool(1.0, 0.95, 0.6)

	t.Run("Balanced", func(t *testing.T) {
		recs, _, err := Select(context.Background(), vecs, p, Options{K: 2, Lambda: 0.5})
		require.NoError(t, err)
		assert.Equal(t, []model.ItemID{100, 98}, recIDs(recs))
	})

	t.Run("RelevanceOnly", func(t *testing.T) {
		recs, _, err := Select(context.Background(), vecs, p, Options{K: 2, Lambda: 1})
		require.NoError(t, err)
		assert.Equal(t, []model.ItemID{100, 99}, recIDs(recs))
	})

	t.Run("DissimilarityOnly", func(t *testing.T) {
		// With lambda 0 every first-step MMR is 0, so the tie-break picks the
		// highest final score first.
		recs, _, err := Select(context.Background(), vecs, p, Options{K: 3, Lambda: 0})
		require.NoError(t, err)
		assert.Equal(t, []model.ItemID{100, 98, 99}, recIDs(recs))
	})
}

func TestSelect_TieBreak(t *testing.T) {
	vecs := matrix{{1, 0}, {1, 0}, {1, 0}}
	p := []model.ScoredCandidate{
		{ID: 30, Row: 0, Scores: model.Scores{Final: 0.5}},
		{ID: 10, Row: 1, Scores: model.Scores{Final: 0.5}},
		{ID: 20, Row: 2, Scores: model.Scores{Final: 0.5}},
	}

	recs, _, err := Select(context.Background(), vecs, p, Options{K: 3, Lambda: 0.7})
	require.NoError(t, err)
	assert.Equal(t, []model.ItemID{10, 20, 30}, recIDs(recs))
}

func TestSelect_Lazy(t *testing.T) {
	const n, k = 200, 5
	vecs := &countingVectors{matrix: matrix(testutil.NewRNG(5).UnitVectors(n, 4))}
	p := make([]model.ScoredCandidate, n)
	for i := range p {
		p[i] = model.ScoredCandidate{ID: model.ItemID(i), Row: model.Row(i), Scores: model.Scores{Final: float64(i) / n}}
	}

	_, _, err := Select(context.Background(), vecs, p, Options{K: k, Lambda: 0.5})
	require.NoError(t, err)

	// Norms, one pass per pick except the last, and the report's pairs.
	bound := int64(n + (k-1)*(n+1) + k + k*(k-1)/2)
	assert.LessOrEqual(t, vecs.calls.Load(), bound)
}

func TestSelect_Options(t *testing.T) {
	vecs := matrix{{1}}
	p := pool(1)

	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"Default", DefaultOptions, true},
		{"ZeroK", Options{K: 0, Lambda: 0.5}, false},
		{"NegativeK", Options{K: -1, Lambda: 0.5}, false},
		{"LambdaHigh", Options{K: 1, Lambda: 1.01}, false},
		{"LambdaLow", Options{K: 1, Lambda: -0.1}, false},
		{"LambdaBounds", Options{K: 1, Lambda: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Select(context.Background(), vecs, p, tt.opts)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, model.ErrConfiguration)
			}
		})
	}

	recs, report, err := Select(context.Background(), vecs, nil, DefaultOptions)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, Report{}, report)
}

func TestAnalyze(t *testing.T) {
	vecs := matrix{{1, 0}, {0, 1}, {1, 0}}

	r := Analyze(vecs, pool(0.4, 0.8))
	assert.InDelta(t, 0, r.IntraListSimilarity, 1e-9)
	assert.InDelta(t, 1, r.Diversity, 1e-9)
	assert.InDelta(t, 0.3, r.MeanNovelty, 1e-9)

	p := pool(1, 1, 1)
	r = Analyze(vecs, p)
	// Pairs: (0,1)=0, (0,2)=1, (1,2)=0.
	assert.InDelta(t, 1.0/3, r.IntraListSimilarity, 1e-6)

	r = Analyze(vecs, p[:1])
	assert.Equal(t, 0.0, r.IntraListSimilarity)
	assert.Equal(t, 1.0, r.Diversity)
}
