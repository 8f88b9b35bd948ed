package hnsw

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/testutil"
)

func build(t *testing.T, vectors [][]float32, ids []model.ItemID, optFns ...func(o *Options)) *HNSW {
	t.Helper()
	h, err := New(append([]func(o *Options){func(o *Options) { o.Dimension = len(vectors[0]) }}, optFns...)...)
	require.NoError(t, err)
	require.NoError(t, h.Build(context.Background(), vectors, ids))
	return h
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   func(o *Options)
	}{
		{"Dimension", func(o *Options) { o.Dimension = 0 }},
		{"M", func(o *Options) { o.Dimension = 4; o.M = 1 }},
		{"EFConstruction", func(o *Options) { o.Dimension = 4; o.EFConstruction = 0 }},
		{"EFSearch", func(o *Options) { o.Dimension = 4; o.EFSearch = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fn)
			assert.ErrorIs(t, err, model.ErrConfiguration)
		})
	}
}

func TestHNSW(t *testing.T) {
	t.Run("SearchBeforeBuild", func(t *testing.T) {
		h, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)
		_, err = h.Search([]float32{1, 0}, 1)
		assert.ErrorIs(t, err, model.ErrIndexNotReady)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		h, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)
		err = h.Build(context.Background(), [][]float32{{1, 0, 0}}, []model.ItemID{1})
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})

	t.Run("BuildTwice", func(t *testing.T) {
		h := build(t, [][]float32{{1, 0}}, []model.ItemID{1})
		assert.ErrorIs(t, h.Build(context.Background(), [][]float32{{1, 0}}, []model.ItemID{1}), index.ErrAlreadyBuilt)
	})

	t.Run("SingleItem", func(t *testing.T) {
		h := build(t, [][]float32{{1, 0}}, []model.ItemID{5})
		got, err := h.Search([]float32{0, 1}, 3)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.ItemID(5), got[0].ID)
	})

	t.Run("TopNLargerThanIndex", func(t *testing.T) {
		rng := testutil.NewRNG(3)
		vectors := rng.UnitVectors(40, 8)
		h := build(t, vectors, testutil.SequentialIDs(40, 0))

		got, err := h.Search(rng.UnitVector(8), 100)
		require.NoError(t, err)
		assert.Len(t, got, 40)
	})

	t.Run("ExcludeStillFillsTopN", func(t *testing.T) {
		rng := testutil.NewRNG(5)
		vectors := rng.UnitVectors(200, 8)
		ids := testutil.SequentialIDs(200, 0)
		h := build(t, vectors, ids)

		q := vectors[17]
		got, err := h.Search(q, 5, index.WithExclude(roaring.BitmapOf(17)))
		require.NoError(t, err)
		require.Len(t, got, 5)
		for _, c := range got {
			assert.NotEqual(t, model.ItemID(17), c.ID)
		}
	})
}

func TestHNSWOrdering(t *testing.T) {
	rng := testutil.NewRNG(11)
	vectors := rng.UnitVectors(500, 16)
	h := build(t, vectors, testutil.SequentialIDs(500, 100))

	got, err := h.Search(rng.UnitVector(16), 50)
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, model.CompareCandidates(got[i-1], got[i]), 0)
	}
}

func TestHNSWRecall(t *testing.T) {
	rng := testutil.NewRNG(4711)
	const n, dim, k = 2000, 16, 10

	vectors := rng.ClusteredVectors(n, dim, 20, 0.2)
	ids := testutil.SequentialIDs(n, 0)
	h := build(t, vectors, ids)

	var total float64
	const queries = 50
	for range queries {
		q := rng.UnitVector(dim)
		got, err := h.Search(q, k)
		require.NoError(t, err)
		total += testutil.ComputeRecall(testutil.BruteForceTopN(vectors, ids, q, k, nil), got)
	}
	assert.GreaterOrEqual(t, total/queries, 0.9)
}

func TestHNSWDeterministic(t *testing.T) {
	rng := testutil.NewRNG(8)
	vectors := rng.UnitVectors(300, 12)
	ids := testutil.SequentialIDs(300, 0)
	q := rng.UnitVector(12)

	a := build(t, vectors, ids, func(o *Options) { o.Seed = 99 })
	b := build(t, vectors, ids, func(o *Options) { o.Seed = 99 })

	ra, err := a.Search(q, 20)
	require.NoError(t, err)
	rb, err := b.Search(q, 20)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
	assert.Equal(t, a.Stats(), b.Stats())
}

func TestHNSWBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, err := New(func(o *Options) { o.Dimension = 2 })
	require.NoError(t, err)
	err = h.Build(ctx, [][]float32{{1, 0}, {0, 1}}, []model.ItemID{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, h.Len())
}

func TestStats(t *testing.T) {
	rng := testutil.NewRNG(2)
	h := build(t, rng.UnitVectors(100, 4), testutil.SequentialIDs(100, 0), func(o *Options) { o.M = 4 })

	s := h.Stats()
	assert.Equal(t, index.KindGraph, s.Kind)
	assert.Equal(t, 100, s.Items)
	assert.Greater(t, s.AvgDegree, 0.0)
	assert.LessOrEqual(t, s.AvgDegree, 8.0)
}

func TestRegistered(t *testing.T) {
	idx, err := index.New(index.KindGraph, index.Config{Dimension: 3, GraphDegree: 8})
	require.NoError(t, err)
	assert.Equal(t, index.KindGraph, idx.Kind())
	assert.Equal(t, 3, idx.Dimension())
}
