// Package queue provides the bounded priority queues used by index search.
package queue

import "github.com/hupe1980/recgo/model"

// Item is a scored row. Items are value types; the heap stores them inline.
type Item struct {
	Row   model.Row
	ID    model.ItemID
	Score float32
}

// Better reports whether a ranks ahead of b: higher score first, then lower item id.
func Better(a, b Item) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// PriorityQueue is a binary heap of Items.
//
// A best-first queue keeps the best item on top (candidate expansion).
// A worst-first queue keeps the worst item on top (bounded result sets).
type PriorityQueue struct {
	worstFirst bool
	items      []Item
}

// NewBestFirst creates a queue whose top is the best item.
func NewBestFirst(capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]Item, 0, capacity)}
}

// NewWorstFirst creates a queue whose top is the worst item.
func NewWorstFirst(capacity int) *PriorityQueue {
	return &PriorityQueue{worstFirst: true, items: make([]Item, 0, capacity)}
}

// Len returns the number of items in the heap.
func (pq *PriorityQueue) Len() int {
	return len(pq.items)
}

// Top returns the top item of the heap.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) Push(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PushBounded inserts item into a worst-first heap holding at most capacity items.
// When full, item replaces the top only if it is better. It reports whether item was kept.
func (pq *PriorityQueue) PushBounded(item Item, capacity int) bool {
	if len(pq.items) < capacity {
		pq.Push(item)
		return true
	}
	if capacity == 0 || !Better(item, pq.items[0]) {
		return false
	}
	pq.items[0] = item
	pq.siftDown(0)
	return true
}

// Pop removes and returns the top item.
func (pq *PriorityQueue) Pop() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// Drain empties the heap and returns its items ordered best first.
func (pq *PriorityQueue) Drain() []Item {
	out := make([]Item, len(pq.items))
	if pq.worstFirst {
		for i := len(out) - 1; i >= 0; i-- {
			out[i], _ = pq.Pop()
		}
		return out
	}
	for i := range out {
		out[i], _ = pq.Pop()
	}
	return out
}

// Reset clears the queue, keeping its backing array.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

func (pq *PriorityQueue) less(i, j int) bool {
	if pq.worstFirst {
		return Better(pq.items[j], pq.items[i])
	}
	return Better(pq.items[i], pq.items[j])
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(i, parent) {
			break
		}
		pq.items[i], pq.items[parent] = pq.items[parent], pq.items[i]
		i = parent
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && pq.less(right, left) {
			child = right
		}
		if !pq.less(child, i) {
			break
		}
		pq.items[i], pq.items[child] = pq.items[child], pq.items[i]
		i = child
	}
}
