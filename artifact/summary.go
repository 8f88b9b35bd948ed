package artifact

import (
	"fmt"
	"strings"
)

// Summary describes a loaded Context.
type Summary struct {
	Items              int    `json:"items"`
	Tags               int    `json:"tags"`
	Dimension          int    `json:"dimension"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	IncidenceNNZ       uint64 `json:"incidence_nnz"`
	ItemsWithAttrs     int    `json:"items_with_attributes"`
	EarliestRelease    string `json:"earliest_release,omitempty"`
	LatestRelease      string `json:"latest_release,omitempty"`
}

// Summarize returns a Summary of sc.
func (sc *Context) Summarize() Summary {
	s := Summary{
		Items:              sc.Len(),
		Tags:               sc.TagCount(),
		Dimension:          sc.dim,
		EmbeddingDimension: sc.EmbeddingDimension(),
		IncidenceNNZ:       sc.incidence.NNZ(),
	}
	for _, it := range sc.attrs {
		if it != nil {
			s.ItemsWithAttrs++
		}
	}
	if lo, hi, ok := sc.ReleaseRange(); ok {
		s.EarliestRelease = lo.Format("2006-01-02")
		s.LatestRelease = hi.Format("2006-01-02")
	}
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "items=%d tags=%d dim=%d", s.Items, s.Tags, s.Dimension)
	if s.EmbeddingDimension > 0 {
		fmt.Fprintf(&b, " align=%dx%d", s.EmbeddingDimension, s.Dimension)
	}
	fmt.Fprintf(&b, " nnz=%d attrs=%d", s.IncidenceNNZ, s.ItemsWithAttrs)
	if s.EarliestRelease != "" {
		fmt.Fprintf(&b, " released=%s..%s", s.EarliestRelease, s.LatestRelease)
	}
	return b.String()
}
