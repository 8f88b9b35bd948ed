package model

import (
	"cmp"
	"fmt"
	"slices"
)

// ItemID is the user-facing stable identifier of a catalog item.
type ItemID int64

// Row is the dense, zero-based row index of an item in the static matrices.
type Row uint32

// Candidate represents a retrieval hit.
type Candidate struct {
	// ID is the catalog item id.
	ID ItemID
	// Row is the matrix row of the item.
	Row Row
	// Similarity is the inner product between the unit query and the unit item vector.
	Similarity float32
}

// String returns a string representation of the Candidate.
func (c Candidate) String() string {
	return fmt.Sprintf("Cand(%d:%.4f)", c.ID, c.Similarity)
}

// CompareCandidates orders by descending similarity, then ascending item id.
func CompareCandidates(a, b Candidate) int {
	if a.Similarity != b.Similarity {
		if a.Similarity > b.Similarity {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortCandidates sorts in place using CompareCandidates.
func SortCandidates(cands []Candidate) {
	slices.SortStableFunc(cands, CompareCandidates)
}

// Scores holds the per-component relevance breakdown of a candidate.
type Scores struct {
	TagMatch   float64 `json:"tag_match"`
	Novelty    float64 `json:"novelty"`
	Recency    float64 `json:"recency"`
	Popularity float64 `json:"popularity"`
	Final      float64 `json:"final"`
}

// ScoredCandidate is a candidate that survived hard filtering and was scored.
type ScoredCandidate struct {
	ID         ItemID
	Row        Row
	Similarity float32
	Scores     Scores
}

// CompareScored orders by descending final score, then ascending item id.
func CompareScored(a, b ScoredCandidate) int {
	if a.Scores.Final != b.Scores.Final {
		if a.Scores.Final > b.Scores.Final {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.ID, b.ID)
}

// Recommendation is a final, ranked output entry.
type Recommendation struct {
	ItemID ItemID `json:"item_id"`
	Scores Scores `json:"scores"`
	// Rank is the 1-based selection order.
	Rank int `json:"rank"`
}

// ScoringWeights are the independent multipliers (alpha, beta, gamma, delta)
// of the final score. They are not required to sum to one.
type ScoringWeights struct {
	Alpha float64 `json:"alpha"` // tag_match
	Beta  float64 `json:"beta"`  // novelty
	Gamma float64 `json:"gamma"` // recency
	Delta float64 `json:"delta"` // popularity
}

// DefaultScoringWeights is (0.4, 0.2, 0.2, 0.2).
var DefaultScoringWeights = ScoringWeights{Alpha: 0.4, Beta: 0.2, Gamma: 0.2, Delta: 0.2}

// Validate rejects negative or non-finite weights.
func (w ScoringWeights) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"alpha", w.Alpha},
		{"beta", w.Beta},
		{"gamma", w.Gamma},
		{"delta", w.Delta},
	} {
		if !isFinite(f.v) || f.v < 0 {
			return &ConfigurationError{Option: f.name, Value: f.v, Reason: "must be a finite, non-negative number"}
		}
	}
	return nil
}
