package index

import (
	"context"
	"errors"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/model"
)

// Kind selects an index backend.
type Kind string

const (
	// KindExact scans every item.
	KindExact Kind = "exact"
	// KindGraph searches an HNSW proximity graph.
	KindGraph Kind = "approximate-graph"
	// KindPartitioned probes the nearest IVF partitions.
	KindPartitioned Kind = "approximate-partitioned"
)

// ParseKind parses a backend name. Unknown names are a configuration error.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindExact, KindGraph, KindPartitioned:
		return k, nil
	default:
		return "", &model.ConfigurationError{Option: "index_type", Value: s, Reason: "must be exact, approximate-graph or approximate-partitioned"}
	}
}

func (k Kind) String() string { return string(k) }

// Index is the capability set shared by all backends.
type Index interface {
	// Kind reports the backend.
	Kind() Kind

	// Dimension is the configured vector width.
	Dimension() int

	// Len is the number of indexed items, zero before Build.
	Len() int

	// Build indexes vectors; row i has item id ids[i]. It fails with a
	// *model.DimensionMismatchError if any vector is not Dimension() wide,
	// and may only be called once.
	Build(ctx context.Context, vectors [][]float32, ids []model.ItemID) error

	// Search returns at most topN candidates ordered by descending
	// similarity, then ascending item id. It fails with model.ErrIndexNotReady
	// before Build.
	Search(query []float32, topN int, opts ...SearchOption) ([]model.Candidate, error)
}

// SearchOptions tune a single search.
type SearchOptions struct {
	// Exclude holds rows that must not be returned. Excluded rows do not count
	// towards topN.
	Exclude *roaring.Bitmap
}

// SearchOption mutates SearchOptions.
type SearchOption func(*SearchOptions)

// WithExclude excludes the given rows from the result.
func WithExclude(rows *roaring.Bitmap) SearchOption {
	return func(o *SearchOptions) {
		o.Exclude = rows
	}
}

// ApplySearchOptions folds opts into a SearchOptions value.
func ApplySearchOptions(opts []SearchOption) SearchOptions {
	var o SearchOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Excluded reports whether row is excluded.
func (o SearchOptions) Excluded(row model.Row) bool {
	return o.Exclude != nil && o.Exclude.Contains(uint32(row))
}

// ExcludedCount returns the number of excluded rows.
func (o SearchOptions) ExcludedCount() int {
	if o.Exclude == nil {
		return 0
	}
	return int(o.Exclude.GetCardinality())
}

// ValidateQuery checks the query width and the requested result size.
func ValidateQuery(dim int, query []float32, topN int) error {
	if len(query) != dim {
		return &model.DimensionMismatchError{Expected: dim, Actual: len(query)}
	}
	if topN < 0 {
		return &model.ConfigurationError{Option: "top_n", Value: topN, Reason: "must not be negative"}
	}
	return nil
}

// ErrAlreadyBuilt is returned by Build on an index that was already built.
var ErrAlreadyBuilt = errors.New("index: already built")
