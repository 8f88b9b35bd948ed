package hnsw

import "github.com/hupe1980/recgo/index"

// Stats describes the built graph. AvgDegree is measured on layer 0.
func (h *HNSW) Stats() index.Stats {
	s := index.Stats{Kind: index.KindGraph, Dimension: h.opts.Dimension}

	g := h.g.Load()
	if g == nil {
		return s
	}

	s.Items = g.matrix.Len()
	s.MaxLevel = g.maxLevel

	var edges int
	for _, l := range g.links {
		edges += len(l[0])
	}
	if s.Items > 0 {
		s.AvgDegree = float64(edges) / float64(s.Items)
	}
	return s
}
