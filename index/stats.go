package index

import "fmt"

// Stats summarizes a built index.
type Stats struct {
	Kind      Kind `json:"kind"`
	Dimension int  `json:"dimension"`
	Items     int  `json:"items"`

	// approximate-graph
	MaxLevel  int     `json:"max_level,omitempty"`
	AvgDegree float64 `json:"avg_degree,omitempty"`

	// approximate-partitioned
	Partitions       int `json:"partitions,omitempty"`
	LargestPartition int `json:"largest_partition,omitempty"`
}

// StatsProvider is implemented by backends that can describe themselves.
type StatsProvider interface {
	Stats() Stats
}

func (s Stats) String() string {
	switch s.Kind {
	case KindGraph:
		return fmt.Sprintf("%s: %d items, dim=%d, max_level=%d, avg_degree=%.2f", s.Kind, s.Items, s.Dimension, s.MaxLevel, s.AvgDegree)
	case KindPartitioned:
		return fmt.Sprintf("%s: %d items, dim=%d, partitions=%d, largest=%d", s.Kind, s.Items, s.Dimension, s.Partitions, s.LargestPartition)
	default:
		return fmt.Sprintf("%s: %d items, dim=%d", s.Kind, s.Items, s.Dimension)
	}
}
