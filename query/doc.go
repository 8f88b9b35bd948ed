// Package query builds unit query vectors from parsed intents.
//
// # Modes
//
//   - similar: mean of the seed item vectors
//   - vibe: mean of the phrase embeddings projected through the alignment matrix
//   - hybrid: weighted blend of the similar and vibe vectors
//
// Target and avoid tags then nudge the vector towards the target-tag centroid
// and away from the avoid-tag centroid. The nudge is a soft bias; hard
// exclusion of avoid tags happens during scoring.
//
// The result is always unit length. For a fixed intent and static context the
// output is bit-identical across calls.
package query
