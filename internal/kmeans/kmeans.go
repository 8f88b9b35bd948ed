package kmeans

import (
	"context"
	"math/rand"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/recgo/distance"
)

// Config controls training.
type Config struct {
	K       int
	MaxIter int
	Seed    int64
	// Workers bounds the parallelism of the assignment step. Zero means GOMAXPROCS.
	Workers int
}

// Train learns cfg.K unit centroids from vectors, a flattened n*dim matrix of
// unit (or zero) rows. It returns the flattened centroids (k * dim) and the
// final assignment of every row. If n < k, k is reduced to n.
func Train(ctx context.Context, vectors []float32, dim int, cfg Config) ([]float32, []int, error) {
	if dim <= 0 {
		return nil, nil, nil
	}
	n := len(vectors) / dim
	k := min(cfg.K, n)
	if k <= 0 {
		return nil, nil, nil
	}
	maxIter := cfg.MaxIter
	if maxIter <= 0 {
		maxIter = 25
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	centroids := make([]float32, k*dim)

	// Initialize centroids from a seeded permutation of the data.
	perm := rng.Perm(n)
	for i := range k {
		copy(centroids[i*dim:(i+1)*dim], vectors[perm[i]*dim:(perm[i]+1)*dim])
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	converged := false
	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		changed, err := assign(ctx, vectors, dim, centroids, assignments, cfg.Workers)
		if err != nil {
			return nil, nil, err
		}
		if !changed {
			converged = true
			break
		}

		clear(sums)
		clear(counts)
		for i := range n {
			c := assignments[i]
			distance.AddScaled(sums[c*dim:(c+1)*dim], 1, vectors[i*dim:(i+1)*dim])
			counts[c]++
		}

		for j := range k {
			center := centroids[j*dim : (j+1)*dim]
			if counts[j] == 0 {
				// Re-seed an empty cluster with a random point.
				idx := rng.Intn(n)
				copy(center, vectors[idx*dim:(idx+1)*dim])
				continue
			}
			copy(center, sums[j*dim:(j+1)*dim])
			distance.NormalizeL2InPlace(center)
		}
	}

	// Hitting the iteration cap leaves assignments one update behind the centroids.
	if !converged {
		if _, err := assign(ctx, vectors, dim, centroids, assignments, cfg.Workers); err != nil {
			return nil, nil, err
		}
	}

	return centroids, assignments, nil
}

// assign moves every row to its most similar centroid and reports whether any row moved.
func assign(ctx context.Context, vectors []float32, dim int, centroids []float32, assignments []int, workers int) (bool, error) {
	n := len(assignments)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (n + workers - 1) / workers
	moved := make([]bool, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				best := Nearest(vectors[i*dim:(i+1)*dim], centroids, dim)
				if assignments[i] != best {
					assignments[i] = best
					moved[w] = true
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return slices.Contains(moved, true), nil
}

// Nearest returns the index of the centroid with the highest inner product
// with vec. Ties resolve to the lowest index.
func Nearest(vec []float32, centroids []float32, dim int) int {
	k := len(centroids) / dim
	best := -1
	var bestSim float32
	for j := range k {
		s := distance.Dot(vec, centroids[j*dim:(j+1)*dim])
		if best < 0 || s > bestSim {
			best, bestSim = j, s
		}
	}
	return best
}

// Closest returns the indices of the n centroids most similar to query,
// most similar first. Ties resolve to the lower index.
func Closest(query []float32, centroids []float32, dim int, n int) []int {
	k := len(centroids) / dim
	n = min(n, k)

	type scored struct {
		id  int
		sim float32
	}
	all := make([]scored, k)
	for i := range k {
		all[i] = scored{id: i, sim: distance.Dot(query, centroids[i*dim:(i+1)*dim])}
	}
	slices.SortStableFunc(all, func(a, b scored) int {
		switch {
		case a.sim > b.sim:
			return -1
		case a.sim < b.sim:
			return 1
		default:
			return a.id - b.id
		}
	})

	out := make([]int, n)
	for i := range n {
		out[i] = all[i].id
	}
	return out
}
