// Package hnsw implements the Hierarchical Navigable Small World (HNSW) graph
// for approximate nearest neighbor search.
//
// Nodes are inserted in row order with levels drawn from a seeded source, so
// the same vectors and options always produce the same graph.
package hnsw

import (
	"context"
	"math"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/internal/queue"
	"github.com/hupe1980/recgo/model"
)

const (
	// mmax0Multiplier is the multiplier for calculating maximum connections at layer 0.
	mmax0Multiplier = 2

	// minimumM is the minimum valid value for M.
	minimumM = 2

	// DefaultM is the default number of bidirectional links.
	DefaultM = 32

	// DefaultEFConstruction is the default candidate list size during build.
	DefaultEFConstruction = 200

	// DefaultEFSearch is the default candidate list size during search.
	DefaultEFSearch = 100
)

// Compile-time check
var _ index.Index = (*HNSW)(nil)

func init() {
	index.Register(index.KindGraph, func(cfg index.Config) (index.Index, error) {
		return New(func(o *Options) {
			o.Dimension = cfg.Dimension
			o.M = cfg.GraphDegree
			o.EFConstruction = cfg.EfConstruction
			o.EFSearch = cfg.EfSearch
			o.Seed = cfg.Seed
		})
	})
}

// Options represents the options for configuring HNSW.
type Options struct {
	// Dimension is the fixed vector width.
	Dimension int

	// M is the number of links kept per node on layers above 0. Layer 0 keeps 2*M.
	// Higher M improves recall on high intrinsic dimensionality at the cost of
	// memory and build time.
	M int

	// EFConstruction is the size of the dynamic candidate list during insertion.
	EFConstruction int

	// EFSearch is the minimum size of the dynamic candidate list during search.
	// The effective value is max(EFSearch, topN + excluded rows).
	EFSearch int

	// Heuristic selects neighbours with the diversity heuristic instead of
	// plain nearest-M.
	Heuristic bool

	// Seed drives level assignment.
	Seed int64
}

// DefaultOptions holds the graph parameters used when none are given.
var DefaultOptions = Options{
	M:              DefaultM,
	EFConstruction: DefaultEFConstruction,
	EFSearch:       DefaultEFSearch,
	Heuristic:      true,
	Seed:           42,
}

// graph is the immutable result of Build.
type graph struct {
	matrix   *index.Matrix
	links    [][][]model.Row // links[row][level]
	entry    model.Row
	maxLevel int
}

// HNSW represents the Hierarchical Navigable Small World graph.
type HNSW struct {
	opts  Options
	mmax  int
	mmax0 int
	ml    float64

	g       atomic.Pointer[graph]
	buildMu sync.Mutex

	visitedPool sync.Pool
}

// New creates an unbuilt HNSW index.
func New(optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, &model.ConfigurationError{Option: "dimension", Value: opts.Dimension, Reason: "must be positive"}
	}
	if opts.M < minimumM {
		return nil, &model.ConfigurationError{Option: "graph_degree", Value: opts.M, Reason: "must be at least 2"}
	}
	if opts.EFConstruction < 1 {
		return nil, &model.ConfigurationError{Option: "ef_construction", Value: opts.EFConstruction, Reason: "must be positive"}
	}
	if opts.EFSearch < 1 {
		return nil, &model.ConfigurationError{Option: "ef_search", Value: opts.EFSearch, Reason: "must be positive"}
	}

	return &HNSW{
		opts:  opts,
		mmax:  opts.M,
		mmax0: mmax0Multiplier * opts.M,
		ml:    1 / math.Log(float64(opts.M)),
	}, nil
}

func (*HNSW) Kind() index.Kind { return index.KindGraph }

func (h *HNSW) Dimension() int { return h.opts.Dimension }

func (h *HNSW) Len() int {
	if g := h.g.Load(); g != nil {
		return g.matrix.Len()
	}
	return 0
}

// Build inserts every vector in row order and publishes the finished graph.
func (h *HNSW) Build(ctx context.Context, vectors [][]float32, ids []model.ItemID) error {
	h.buildMu.Lock()
	defer h.buildMu.Unlock()

	if h.g.Load() != nil {
		return index.ErrAlreadyBuilt
	}

	m, err := index.NewMatrix(ctx, h.opts.Dimension, vectors, ids)
	if err != nil {
		return err
	}

	b := &builder{
		h:       h,
		g:       &graph{matrix: m, links: make([][][]model.Row, m.Len())},
		rng:     rand.New(rand.NewSource(h.opts.Seed)),
		visited: bitset.New(uint(m.Len())),
	}
	for i := range m.Len() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		b.insert(model.Row(i))
	}

	h.g.Store(b.g)
	return nil
}

// builder holds the mutable state of a single Build call.
type builder struct {
	h       *HNSW
	g       *graph
	rng     *rand.Rand
	visited *bitset.BitSet
}

func (b *builder) randomLevel() int {
	// 1-U keeps the argument of Log in (0, 1].
	return int(math.Floor(-math.Log(1-b.rng.Float64()) * b.h.ml))
}

func (b *builder) insert(row model.Row) {
	g := b.g
	level := b.randomLevel()
	g.links[row] = make([][]model.Row, level+1)

	if row == 0 {
		g.entry = row
		g.maxLevel = level
		return
	}

	v := g.matrix.Row(row)
	ep := g.item(v, g.entry)

	// Greedy descent through the layers above the new node's level.
	for l := g.maxLevel; l > level; l-- {
		ep = g.greedy(v, ep, l)
	}

	eps := []queue.Item{ep}
	for l := min(level, g.maxLevel); l >= 0; l-- {
		b.visited.ClearAll()
		w := g.searchLayer(v, eps, b.h.opts.EFConstruction, l, b.visited)

		neighbours := b.h.selectNeighbours(g, w, b.h.mmax)
		g.links[row][l] = neighbours
		for _, n := range neighbours {
			b.link(n, row, l)
		}
		eps = w
	}

	if level > g.maxLevel {
		g.entry = row
		g.maxLevel = level
	}
}

// link adds an edge first->second, shrinking first's list when it overflows.
func (b *builder) link(first, second model.Row, level int) {
	g := b.g
	maxConnections := b.h.mmax
	if level == 0 {
		maxConnections = b.h.mmax0
	}

	conns := append(g.links[first][level], second)
	if len(conns) <= maxConnections {
		g.links[first][level] = conns
		return
	}

	base := g.matrix.Row(first)
	items := make([]queue.Item, len(conns))
	for i, c := range conns {
		items[i] = g.item(base, c)
	}
	slices.SortFunc(items, compareItems)
	g.links[first][level] = b.h.selectNeighbours(g, items, maxConnections)
}

// selectNeighbours picks up to m rows from cands (best first).
//
// With the heuristic, a candidate is skipped when it is closer to an already
// selected neighbour than to the base point; skipped candidates fill the
// remaining slots afterwards.
func (h *HNSW) selectNeighbours(g *graph, cands []queue.Item, m int) []model.Row {
	if !h.opts.Heuristic || len(cands) <= m {
		out := make([]model.Row, 0, min(m, len(cands)))
		for _, c := range cands[:min(m, len(cands))] {
			out = append(out, c.Row)
		}
		return out
	}

	selected := make([]model.Row, 0, m)
	var pruned []model.Row
	for _, c := range cands {
		if len(selected) >= m {
			break
		}
		cv := g.matrix.Row(c.Row)
		keep := true
		for _, s := range selected {
			if g.matrix.Similarity(cv, s) > c.Score {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c.Row)
		} else {
			pruned = append(pruned, c.Row)
		}
	}
	for _, p := range pruned {
		if len(selected) >= m {
			break
		}
		selected = append(selected, p)
	}
	return selected
}

func compareItems(a, b queue.Item) int {
	switch {
	case queue.Better(a, b):
		return -1
	case queue.Better(b, a):
		return 1
	default:
		return 0
	}
}

func (g *graph) item(q []float32, r model.Row) queue.Item {
	return queue.Item{Row: r, ID: g.matrix.ID(r), Score: g.matrix.Similarity(q, r)}
}

// greedy walks level l from ep towards q until no neighbour improves.
func (g *graph) greedy(q []float32, ep queue.Item, l int) queue.Item {
	for changed := true; changed; {
		changed = false
		for _, n := range g.links[ep.Row][l] {
			if it := g.item(q, n); queue.Better(it, ep) {
				ep = it
				changed = true
			}
		}
	}
	return ep
}

// searchLayer runs the best-first beam search on level l and returns up to ef
// items, best first.
func (g *graph) searchLayer(q []float32, eps []queue.Item, ef, l int, visited *bitset.BitSet) []queue.Item {
	candidates := queue.NewBestFirst(ef)
	results := queue.NewWorstFirst(ef)

	for _, ep := range eps {
		if visited.Test(uint(ep.Row)) {
			continue
		}
		visited.Set(uint(ep.Row))
		candidates.Push(ep)
		results.PushBounded(ep, ef)
	}

	for candidates.Len() > 0 {
		c, _ := candidates.Pop()
		if worst, ok := results.Top(); ok && results.Len() >= ef && queue.Better(worst, c) {
			break
		}

		links := g.links[c.Row]
		if l >= len(links) {
			continue
		}
		for _, n := range links[l] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			it := g.item(q, n)
			if results.Len() < ef {
				candidates.Push(it)
				results.Push(it)
				continue
			}
			if worst, _ := results.Top(); queue.Better(it, worst) {
				candidates.Push(it)
				results.PushBounded(it, ef)
			}
		}
	}

	return results.Drain()
}

// Search runs a layered greedy descent followed by a beam search on layer 0.
// If the beam yields fewer than topN eligible rows, the result is completed
// by an exhaustive scan.
func (h *HNSW) Search(query []float32, topN int, opts ...index.SearchOption) ([]model.Candidate, error) {
	g := h.g.Load()
	if g == nil {
		return nil, model.ErrIndexNotReady
	}
	if err := index.ValidateQuery(h.opts.Dimension, query, topN); err != nil {
		return nil, err
	}
	n := g.matrix.Len()
	if topN == 0 || n == 0 {
		return []model.Candidate{}, nil
	}

	q := index.NormalizeQuery(query)
	so := index.ApplySearchOptions(opts)
	excluded := excludedWithin(so, n)
	want := min(topN, n-excluded)
	ef := max(h.opts.EFSearch, topN+excluded)

	ep := g.item(q, g.entry)
	for l := g.maxLevel; l > 0; l-- {
		ep = g.greedy(q, ep, l)
	}

	visited := h.getVisited(n)
	w := g.searchLayer(q, []queue.Item{ep}, ef, 0, visited)
	h.visitedPool.Put(visited)

	out := make([]queue.Item, 0, want)
	for _, it := range w {
		if len(out) == want {
			break
		}
		if !so.Excluded(it.Row) {
			out = append(out, it)
		}
	}

	if len(out) < want {
		out = g.matrix.ScanRange(q, 0, n, topN, so)
	}

	return index.ToCandidates(out), nil
}

func (h *HNSW) getVisited(n int) *bitset.BitSet {
	if v, ok := h.visitedPool.Get().(*bitset.BitSet); ok && v.Len() >= uint(n) {
		v.ClearAll()
		return v
	}
	return bitset.New(uint(n))
}

// excludedWithin counts excluded rows that exist in an index of n rows.
func excludedWithin(o index.SearchOptions, n int) int {
	if o.Exclude == nil || n == 0 {
		return 0
	}
	return int(o.Exclude.Rank(uint32(n - 1)))
}
