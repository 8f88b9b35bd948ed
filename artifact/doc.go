// Package artifact loads the immutable static context used by every request.
//
// # Artifacts
//
// A catalog snapshot produced by the offline training pipeline consists of:
//
//   - item_vecs.npy: item embedding matrix (N×D)
//   - tag_vecs.npy: tag embedding matrix (M×D)
//   - align.npy: optional text-to-tag alignment matrix (E×D)
//   - item_weight.npy: item weight vector (N)
//   - item_tag.npz: scipy CSR item-tag incidence matrix (N×M)
//   - index_maps.json: item id → row and tag name → column maps
//   - items.json: optional per-item attributes used by hard filters and recency
//
// Any artifact may be stored compressed as <name>.zst or <name>.lz4.
//
// # Usage
//
//	store := blobstore.NewLocalStore("./artifacts")
//	sc, err := artifact.Load(ctx, store)
//	if errors.Is(err, model.ErrMissingArtifact) { ... }
//
// A Context is never mutated after construction and is safe for concurrent use.
package artifact
