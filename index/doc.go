// Package index provides the nearest-neighbor index abstraction and its shared
// building blocks.
//
// recgo supports three interchangeable backends, selected at runtime by Kind:
//
//   - exact: brute-force inner product over every item (package flat)
//   - approximate-graph: HNSW graph with configurable degree (package hnsw)
//   - approximate-partitioned: IVF over spherical k-means partitions (package ivf)
//
// # Similarity
//
// Vectors are L2-normalized copies of the item matrix; similarity is their
// inner product (cosine). Results are ordered by descending similarity with
// ties broken by ascending item id.
//
// # Lifecycle
//
// An index is built exactly once and is read-only afterwards, so Search is
// safe for unlimited concurrent callers. Rebuilds produce a fresh index that
// is published through a Handle with a single atomic pointer swap.
//
// # Backends
//
// Backends register a Factory from an init function; callers import the
// backend packages they want and construct indexes with New:
//
//	import _ "github.com/hupe1980/recgo/index/hnsw"
//
//	idx, err := index.New(index.KindGraph, index.Config{Dimension: 64})
package index
