package ivf

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

func build(t *testing.T, vectors [][]float32, ids []model.ItemID, optFns ...func(o *Options)) *IVF {
	t.Helper()
	f, err := New(append([]func(o *Options){func(o *Options) { o.Dimension = len(vectors[0]) }}, optFns...)...)
	require.NoError(t, err)
	require.NoError(t, f.Build(context.Background(), vectors, ids))
	return f
}

func TestAutoPartitions(t *testing.T) {
	assert.Equal(t, 1, AutoPartitions(0))
	assert.Equal(t, 1, AutoPartitions(5))
	assert.Equal(t, 2, AutoPartitions(20))
	assert.Equal(t, 50, AutoPartitions(500))
	assert.Equal(t, 100, AutoPartitions(100000))
}

func TestIVF(t *testing.T) {
	t.Run("SearchBeforeBuild", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)
		_, err = f.Search([]float32{1, 0}, 1)
		assert.ErrorIs(t, err, model.ErrIndexNotReady)
	})

	t.Run("InvalidOptions", func(t *testing.T) {
		_, err := New(func(o *Options) { o.Dimension = 2; o.Probes = 0 })
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)
		err = f.Build(context.Background(), [][]float32{{1}}, []model.ItemID{1})
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})

	t.Run("ProbesExpandUntilTopN", func(t *testing.T) {
		rng := testutil.NewRNG(21)
		vectors := rng.ClusteredVectors(400, 8, 40, 0.05)
		ids := testutil.SequentialIDs(400, 0)
		f := build(t, vectors, ids, func(o *Options) { o.Partitions = 40; o.Probes = 1 })

		got, err := f.Search(rng.UnitVector(8), 120)
		require.NoError(t, err)
		assert.Len(t, got, 120)
	})

	t.Run("Exclude", func(t *testing.T) {
		rng := testutil.NewRNG(22)
		vectors := rng.UnitVectors(100, 8)
		f := build(t, vectors, testutil.SequentialIDs(100, 0))

		got, err := f.Search(vectors[3], 10, index.WithExclude(roaring.BitmapOf(3)))
		require.NoError(t, err)
		require.Len(t, got, 10)
		for _, c := range got {
			assert.NotEqual(t, model.ItemID(3), c.ID)
		}
	})
}

func TestIVFAllPartitionsMatchesOracle(t *testing.T) {
	rng := testutil.NewRNG(7)
	vectors := rng.UnitVectors(300, 8)
	ids := testutil.SequentialIDs(300, 10)
	f := build(t, vectors, ids, func(o *Options) { o.Partitions = 10; o.Probes = 10 })

	q := rng.UnitVector(8)
	got, err := f.Search(q, 25)
	require.NoError(t, err)

	want := testutil.BruteForceTopN(vectors, ids, q, 25, nil)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
	}
}

func TestIVFRecall(t *testing.T) {
	rng := testutil.NewRNG(4711)
	const n, dim, k = 2000, 16, 10

	vectors := rng.ClusteredVectors(n, dim, 20, 0.2)
	ids := testutil.SequentialIDs(n, 0)
	f := build(t, vectors, ids)

	var total float64
	const queries = 30
	for range queries {
		q := vectors[rng.Intn(n)]
		got, err := f.Search(q, k)
		require.NoError(t, err)
		total += testutil.ComputeRecall(testutil.BruteForceTopN(vectors, ids, q, k, nil), got)
	}
	assert.GreaterOrEqual(t, total/queries, 0.8)
}

func TestIVFStats(t *testing.T) {
	rng := testutil.NewRNG(1)
	f := build(t, rng.UnitVectors(200, 4), testutil.SequentialIDs(200, 0))

	s := f.Stats()
	assert.Equal(t, index.KindPartitioned, s.Kind)
	assert.Equal(t, 200, s.Items)
	assert.Equal(t, 20, s.Partitions)
	assert.GreaterOrEqual(t, s.LargestPartition, 10)
}
