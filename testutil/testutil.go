package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/recgo/distance"
	"github.com/hupe1980/recgo/model"
)

// RNG is a seeded random source for reproducible test data. It is safe
// for concurrent use.
type RNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a value in [0,n).
func (g *RNG) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Intn(n)
}

// Float32 returns a value in [0,1).
func (g *RNG) Float32() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Float32()
}

// GaussianVectors returns n vectors with standard normal components.
func (g *RNG) GaussianVectors(n, dim int) [][]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.normal(n, dim, 1, nil)
}

// UnitVectors returns n vectors drawn uniformly from the unit sphere.
func (g *RNG) UnitVectors(n, dim int) [][]float32 {
	vecs := g.GaussianVectors(n, dim)
	for _, v := range vecs {
		distance.NormalizeL2InPlace(v)
	}
	return vecs
}

// UnitVector returns one vector from the unit sphere.
func (g *RNG) UnitVector(dim int) []float32 {
	return g.UnitVectors(1, dim)[0]
}

// ClusteredVectors returns n vectors scattered with standard deviation
// spread around clusters random unit centroids, assigned round robin.
func (g *RNG) ClusteredVectors(n, dim, clusters int, spread float32) [][]float32 {
	centroids := g.UnitVectors(clusters, dim)

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.normal(n, dim, spread, func(i int) []float32 { return centroids[i%clusters] })
}

// normal draws n vectors of N(center(i), sigma²) components. The caller
// holds g.mu.
func (g *RNG) normal(n, dim int, sigma float32, center func(i int) []float32) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(g.r.NormFloat64()) * sigma
		}
		if center != nil {
			for j, c := range center(i) {
				v[j] += c
			}
		}
		out[i] = v
	}
	return out
}

// SequentialIDs returns start, start+1, ..., start+n-1.
func SequentialIDs(n int, start model.ItemID) []model.ItemID {
	ids := make([]model.ItemID, n)
	for i := range ids {
		ids[i] = start + model.ItemID(i)
	}
	return ids
}

// BruteForceTopN is the exact cosine oracle: every row not in exclude is
// ranked against query by cosine similarity, descending, ties by ascending
// id. Zero vectors score 0.
func BruteForceTopN(vectors [][]float32, ids []model.ItemID, query []float32, k int, exclude map[model.Row]bool) []model.Candidate {
	q, ok := distance.NormalizeL2Copy(query)
	if !ok {
		q = make([]float32, len(query))
	}

	ranked := make([]model.Candidate, 0, len(vectors))
	for i, v := range vectors {
		row := model.Row(i)
		if exclude[row] {
			continue
		}
		c := model.Candidate{ID: ids[i], Row: row}
		if u, ok := distance.NormalizeL2Copy(v); ok {
			c.Similarity = distance.Dot(q, u)
		}
		ranked = append(ranked, c)
	}
	model.SortCandidates(ranked)
	return ranked[:min(k, len(ranked))]
}

// ComputeRecall is the share of the first k truth ids found among the first
// k approximate ids, k being the shorter length. Two empty lists agree fully.
func ComputeRecall(truth, approx []model.Candidate) float64 {
	k := min(len(truth), len(approx))
	if k == 0 {
		if len(truth) == len(approx) {
			return 1
		}
		return 0
	}

	want := make(map[model.ItemID]bool, k)
	for _, c := range truth[:k] {
		want[c.ID] = true
	}
	hits := 0
	for _, c := range approx[:k] {
		if want[c.ID] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
