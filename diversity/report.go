package diversity

import (
	"github.com/hupe1980/recgo/distance"
	"github.com/hupe1980/recgo/model"
)

// Report describes the diversity of a selected list.
type Report struct {
	// IntraListSimilarity is the mean pairwise cosine of the selected items.
	IntraListSimilarity float64 `json:"intra_list_similarity"`
	// Diversity is 1 − IntraListSimilarity.
	Diversity float64 `json:"diversity"`
	// MeanNovelty is the mean novelty component of the selected items.
	MeanNovelty float64 `json:"mean_novelty"`
}

// Analyze computes the Report of a selected list. Lists shorter than two
// items have zero intra-list similarity.
func Analyze(vecs Vectors, selected []model.ScoredCandidate) Report {
	var r Report
	if len(selected) == 0 {
		return r
	}

	var novelty float64
	for _, c := range selected {
		novelty += c.Scores.Novelty
	}
	r.MeanNovelty = novelty / float64(len(selected))

	var sum float64
	var pairs int
	for i := range selected {
		a := vecs.ItemVector(selected[i].Row)
		for j := i + 1; j < len(selected); j++ {
			sum += float64(distance.Cosine(a, vecs.ItemVector(selected[j].Row)))
			pairs++
		}
	}
	if pairs > 0 {
		r.IntraListSimilarity = sum / float64(pairs)
	}
	r.Diversity = 1 - r.IntraListSimilarity
	return r
}
