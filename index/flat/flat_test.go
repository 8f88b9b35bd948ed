package flat

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

func newBuilt(t *testing.T, vectors [][]float32, ids []model.ItemID, optFns ...func(o *Options)) *Flat {
	t.Helper()
	f, err := New(append([]func(o *Options){func(o *Options) { o.Dimension = len(vectors[0]) }}, optFns...)...)
	require.NoError(t, err)
	require.NoError(t, f.Build(context.Background(), vectors, ids))
	return f
}

func TestFlat(t *testing.T) {
	t.Run("SearchBeforeBuild", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 3 })
		require.NoError(t, err)

		_, err = f.Search([]float32{1, 0, 0}, 5)
		assert.ErrorIs(t, err, model.ErrIndexNotReady)
		assert.Equal(t, 0, f.Len())
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 3 })
		require.NoError(t, err)

		err = f.Build(context.Background(), [][]float32{{1, 2, 3}, {1, 2}}, []model.ItemID{1, 2})
		require.Error(t, err)
		assert.IsType(t, &model.DimensionMismatchError{}, err)
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)

		// nothing was published
		_, err = f.Search([]float32{1, 0, 0}, 1)
		assert.ErrorIs(t, err, model.ErrIndexNotReady)
	})

	t.Run("QueryDimensionMismatch", func(t *testing.T) {
		f := newBuilt(t, [][]float32{{1, 0}}, []model.ItemID{1})
		_, err := f.Search([]float32{1, 0, 0}, 1)
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	})

	t.Run("BuildTwice", func(t *testing.T) {
		f := newBuilt(t, [][]float32{{1, 0}}, []model.ItemID{1})
		err := f.Build(context.Background(), [][]float32{{0, 1}}, []model.ItemID{2})
		assert.ErrorIs(t, err, index.ErrAlreadyBuilt)
	})

	t.Run("OrderingAndTies", func(t *testing.T) {
		vectors := [][]float32{
			{1, 0},
			{0, 1},
			{3, 0},
			{1, 1},
		}
		ids := []model.ItemID{9, 8, 7, 6}
		f := newBuilt(t, vectors, ids)

		got, err := f.Search([]float32{2, 0}, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, model.ItemID(7), got[0].ID)
		assert.Equal(t, model.ItemID(9), got[1].ID)
		assert.Equal(t, model.ItemID(6), got[2].ID)
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-6)
	})

	t.Run("ShorterThanTopN", func(t *testing.T) {
		f := newBuilt(t, [][]float32{{1, 0}, {0, 1}}, []model.ItemID{1, 2})
		got, err := f.Search([]float32{1, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Exclude", func(t *testing.T) {
		f := newBuilt(t, [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}, []model.ItemID{1, 2, 3})
		got, err := f.Search([]float32{1, 0}, 2, index.WithExclude(roaring.BitmapOf(0)))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.ItemID(2), got[0].ID)
		assert.Equal(t, model.ItemID(3), got[1].ID)
	})

	t.Run("ZeroVectorItem", func(t *testing.T) {
		f := newBuilt(t, [][]float32{{0, 0}, {1, 0}}, []model.ItemID{1, 2})
		got, err := f.Search([]float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, model.ItemID(2), got[0].ID)
		assert.Equal(t, float32(0), got[1].Similarity)
	})
}

func TestFlatMatchesOracle(t *testing.T) {
	rng := testutil.NewRNG(4711)
	const n, dim = 5000, 24

	vectors := rng.GaussianVectors(n, dim)
	ids := testutil.SequentialIDs(n, 1000)

	for _, workers := range []int{1, 3, 8} {
		f := newBuilt(t, vectors, ids, func(o *Options) { o.Workers = workers })

		for range 5 {
			q := rng.UnitVector(dim)
			got, err := f.Search(q, 50)
			require.NoError(t, err)

			want := testutil.BruteForceTopN(vectors, ids, q, 50, nil)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].ID, got[i].ID, "workers=%d rank=%d", workers, i)
			}
		}
	}
}

func TestFlatConcurrentSearch(t *testing.T) {
	rng := testutil.NewRNG(1)
	vectors := rng.UnitVectors(300, 8)
	f := newBuilt(t, vectors, testutil.SequentialIDs(300, 0))
	q := rng.UnitVector(8)

	want, err := f.Search(q, 20)
	require.NoError(t, err)

	done := make(chan []model.Candidate, 8)
	for range 8 {
		go func() {
			got, _ := f.Search(q, 20)
			done <- got
		}()
	}
	for range 8 {
		assert.Equal(t, want, <-done)
	}
}
