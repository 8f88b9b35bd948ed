package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/model"
)

func TestBestFirst(t *testing.T) {
	pq := NewBestFirst(4)
	pq.Push(Item{ID: 3, Score: 0.2})
	pq.Push(Item{ID: 1, Score: 0.9})
	pq.Push(Item{ID: 2, Score: 0.5})

	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, model.ItemID(1), top.ID)

	var ids []model.ItemID
	for pq.Len() > 0 {
		it, _ := pq.Pop()
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []model.ItemID{1, 2, 3}, ids)

	_, ok = pq.Pop()
	assert.False(t, ok)
}

func TestWorstFirstBounded(t *testing.T) {
	pq := NewWorstFirst(3)
	scores := []float32{0.1, 0.7, 0.3, 0.9, 0.5, 0.2}
	for i, s := range scores {
		pq.PushBounded(Item{Row: model.Row(i), ID: model.ItemID(i), Score: s}, 3)
	}
	require.Equal(t, 3, pq.Len())

	top, _ := pq.Top()
	assert.Equal(t, float32(0.5), top.Score)

	got := pq.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, []float32{0.9, 0.7, 0.5}, []float32{got[0].Score, got[1].Score, got[2].Score})
	assert.Equal(t, 0, pq.Len())
}

func TestTieBreakByID(t *testing.T) {
	pq := NewWorstFirst(2)
	pq.PushBounded(Item{ID: 9, Score: 1}, 2)
	pq.PushBounded(Item{ID: 5, Score: 1}, 2)
	assert.True(t, pq.PushBounded(Item{ID: 1, Score: 1}, 2))
	assert.False(t, pq.PushBounded(Item{ID: 7, Score: 1}, 2))

	got := pq.Drain()
	assert.Equal(t, model.ItemID(1), got[0].ID)
	assert.Equal(t, model.ItemID(5), got[1].ID)
}

func TestBetter(t *testing.T) {
	assert.True(t, Better(Item{ID: 2, Score: 0.5}, Item{ID: 1, Score: 0.4}))
	assert.True(t, Better(Item{ID: 1, Score: 0.5}, Item{ID: 2, Score: 0.5}))
	assert.False(t, Better(Item{ID: 2, Score: 0.5}, Item{ID: 2, Score: 0.5}))
}

func TestPushBoundedZeroCapacity(t *testing.T) {
	pq := NewWorstFirst(0)
	assert.False(t, pq.PushBounded(Item{ID: 1, Score: 1}, 0))
	assert.Equal(t, 0, pq.Len())
}
