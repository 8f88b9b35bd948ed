package diversity

import (
	"context"
	"math"

	"github.com/hupe1980/recgo/distance"
	"github.com/hupe1980/recgo/model"
)

// Vectors resolves the item vector of a matrix row.
type Vectors interface {
	ItemVector(row model.Row) []float32
}

// Options configures Select.
type Options struct {
	// K is the number of items to select.
	K int
	// Lambda trades relevance (1) against dissimilarity (0).
	Lambda float64
}

// DefaultOptions selects 10 items with an even trade-off.
var DefaultOptions = Options{
	K:      10,
	Lambda: 0.5,
}

// Validate rejects k ≤ 0 and lambda outside [0,1].
func (o Options) Validate() error {
	if o.K <= 0 {
		return &model.ConfigurationError{Option: "k", Value: o.K, Reason: "must be positive"}
	}
	if math.IsNaN(o.Lambda) || o.Lambda < 0 || o.Lambda > 1 {
		return &model.ConfigurationError{Option: "lambda", Value: o.Lambda, Reason: "must be in [0,1]"}
	}
	return nil
}

// Select greedily picks min(K, len(pool)) candidates and ranks them 1..n in
// selection order. pool is not modified.
func Select(ctx context.Context, vecs Vectors, pool []model.ScoredCandidate, opts Options) ([]model.Recommendation, Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Report{}, err
	}

	n := min(opts.K, len(pool))
	if n == 0 {
		return nil, Report{}, nil
	}

	remaining := make([]int, len(pool))
	for i := range remaining {
		remaining[i] = i
	}
	// maxSim[i] is the largest cosine between pool[i] and any selected item;
	// it is only read once something has been selected.
	maxSim := make([]float64, len(pool))
	for i := range maxSim {
		maxSim[i] = math.Inf(-1)
	}
	norms := make([]float32, len(pool))
	for i, c := range pool {
		norms[i] = distance.Norm(vecs.ItemVector(c.Row))
	}

	selected := make([]int, 0, n)
	lambda := opts.Lambda

	for len(selected) < n {
		best := -1
		var bestMMR float64
		for pos, i := range remaining {
			var redundancy float64
			if len(selected) > 0 {
				redundancy = maxSim[i]
			}
			mmr := lambda*pool[i].Scores.Final - (1-lambda)*redundancy
			if best < 0 || better(mmr, pool[i], bestMMR, pool[remaining[best]]) {
				best, bestMMR = pos, mmr
			}
		}

		pick := remaining[best]
		selected = append(selected, pick)
		remaining = append(remaining[:best], remaining[best+1:]...)

		if len(selected) == n {
			break
		}
		pv := vecs.ItemVector(pool[pick].Row)
		for _, i := range remaining {
			sim := cosine(vecs.ItemVector(pool[i].Row), norms[i], pv, norms[pick])
			if sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	recs := make([]model.Recommendation, n)
	picked := make([]model.ScoredCandidate, n)
	for rank, i := range selected {
		recs[rank] = model.Recommendation{ItemID: pool[i].ID, Scores: pool[i].Scores, Rank: rank + 1}
		picked[rank] = pool[i]
	}
	return recs, Analyze(vecs, picked), nil
}

// better orders by MMR, then final score, then ascending item id.
func better(mmr float64, c model.ScoredCandidate, bestMMR float64, best model.ScoredCandidate) bool {
	if mmr != bestMMR {
		return mmr > bestMMR
	}
	if c.Scores.Final != best.Scores.Final {
		return c.Scores.Final > best.Scores.Final
	}
	return c.ID < best.ID
}

func cosine(a []float32, na float32, b []float32, nb float32) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	return float64(distance.Dot(a, b)) / (float64(na) * float64(nb))
}
