package scoring

import (
	"math"

	"github.com/hupe1980/recgo/model"
)

// ComponentStats summarizes one score component over the kept pool.
type ComponentStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Stats describes one scoring pass.
type Stats struct {
	Retrieved    int `json:"retrieved"`
	ByConstraint int `json:"filtered_by_constraint"`
	ByAvoidTag   int `json:"filtered_by_avoid_tag"`
	Kept         int `json:"kept"`

	TagMatch   ComponentStats `json:"tag_match"`
	Novelty    ComponentStats `json:"novelty"`
	Recency    ComponentStats `json:"recency"`
	Popularity ComponentStats `json:"popularity"`
	Final      ComponentStats `json:"final"`
}

// Filtered returns the number of candidates removed by hard filters.
func (s Stats) Filtered() int { return s.ByConstraint + s.ByAvoidTag }

func (s *Stats) observe(pool []model.ScoredCandidate) {
	pick := []struct {
		dst *ComponentStats
		get func(model.Scores) float64
	}{
		{&s.TagMatch, func(sc model.Scores) float64 { return sc.TagMatch }},
		{&s.Novelty, func(sc model.Scores) float64 { return sc.Novelty }},
		{&s.Recency, func(sc model.Scores) float64 { return sc.Recency }},
		{&s.Popularity, func(sc model.Scores) float64 { return sc.Popularity }},
		{&s.Final, func(sc model.Scores) float64 { return sc.Final }},
	}
	for _, p := range pick {
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, c := range pool {
			v := p.get(c.Scores)
			lo = min(lo, v)
			hi = max(hi, v)
			sum += v
		}
		*p.dst = ComponentStats{Min: lo, Max: hi, Mean: sum / float64(len(pool))}
	}
}
