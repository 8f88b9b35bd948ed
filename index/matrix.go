package index

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/recgo/distance"
	"github.com/hupe1980/recgo/internal/queue"
	"github.com/hupe1980/recgo/model"
)

// Matrix is the normalized, row-major item storage shared by the backends.
// It is immutable once built.
type Matrix struct {
	dim  int
	data []float32
	ids  []model.ItemID
}

// NewMatrix validates vectors against dim and stores unit-normalized copies.
// Zero vectors are kept as zeros.
func NewMatrix(ctx context.Context, dim int, vectors [][]float32, ids []model.ItemID) (*Matrix, error) {
	if len(vectors) != len(ids) {
		return nil, fmt.Errorf("index: %d vectors but %d ids", len(vectors), len(ids))
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, &model.DimensionMismatchError{Expected: dim, Actual: len(v)}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &Matrix{
		dim:  dim,
		data: make([]float32, len(vectors)*dim),
		ids:  append([]model.ItemID(nil), ids...),
	}
	for i, v := range vectors {
		row := m.data[i*dim : (i+1)*dim]
		copy(row, v)
		distance.NormalizeL2InPlace(row)
	}
	return m, nil
}

// Dimension is the row width.
func (m *Matrix) Dimension() int { return m.dim }

// Len is the number of rows.
func (m *Matrix) Len() int { return len(m.ids) }

// Row returns the normalized vector of row r. The slice must not be modified.
func (m *Matrix) Row(r model.Row) []float32 {
	i := int(r)
	return m.data[i*m.dim : (i+1)*m.dim]
}

// ID returns the item id of row r.
func (m *Matrix) ID(r model.Row) model.ItemID { return m.ids[r] }

// Data exposes the flattened matrix. It must not be modified.
func (m *Matrix) Data() []float32 { return m.data }

// Similarity is the inner product of query with row r.
func (m *Matrix) Similarity(query []float32, r model.Row) float32 {
	return distance.Dot(query, m.Row(r))
}

// NormalizeQuery returns a unit copy of query, or a zero vector if query has no norm.
func NormalizeQuery(query []float32) []float32 {
	if q, ok := distance.NormalizeL2Copy(query); ok {
		return q
	}
	return make([]float32, len(query))
}

// ScanRows ranks the given rows exhaustively against a unit query and keeps the best topN.
func (m *Matrix) ScanRows(query []float32, rows []model.Row, topN int, o SearchOptions) []queue.Item {
	pq := queue.NewWorstFirst(topN)
	for _, r := range rows {
		if o.Excluded(r) {
			continue
		}
		pq.PushBounded(queue.Item{Row: r, ID: m.ids[r], Score: m.Similarity(query, r)}, topN)
	}
	return pq.Drain()
}

// ScanRange ranks rows [lo, hi) exhaustively and keeps the best topN.
func (m *Matrix) ScanRange(query []float32, lo, hi, topN int, o SearchOptions) []queue.Item {
	pq := queue.NewWorstFirst(topN)
	for i := lo; i < hi; i++ {
		r := model.Row(i)
		if o.Excluded(r) {
			continue
		}
		pq.PushBounded(queue.Item{Row: r, ID: m.ids[i], Score: distance.Dot(query, m.data[i*m.dim:(i+1)*m.dim])}, topN)
	}
	return pq.Drain()
}

// ParallelScan ranks every row, splitting the matrix into one chunk per
// worker. Chunk results are merged deterministically, so the output is
// identical to a sequential scan.
func (m *Matrix) ParallelScan(query []float32, topN, workers int, o SearchOptions) []queue.Item {
	n := m.Len()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// small matrices are not worth the goroutines
	if workers == 1 || n < 4096 {
		return m.ScanRange(query, 0, n, topN, o)
	}

	chunk := (n + workers - 1) / workers
	parts := make([][]queue.Item, workers)

	var g errgroup.Group
	for w := range workers {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			parts[w] = m.ScanRange(query, lo, hi, topN, o)
			return nil
		})
	}
	_ = g.Wait()

	return MergeTopN(topN, parts...)
}

// ToCandidates converts ranked queue items into candidates.
func ToCandidates(items []queue.Item) []model.Candidate {
	out := make([]model.Candidate, len(items))
	for i, it := range items {
		out[i] = model.Candidate{ID: it.ID, Row: it.Row, Similarity: it.Score}
	}
	return out
}
