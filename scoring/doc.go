// Package scoring applies hard filters to retrieved candidates and computes
// their multi-factor relevance.
//
// # Hard Filters
//
// A candidate is removed (not penalized) when a known attribute violates a
// constraint of the intent, or when the share of its tags that are avoid
// tags exceeds the avoid-tag threshold. Unknown attributes never violate.
//
// # Components
//
// Every component lies in [0,1]:
//
//   - tag_match: cosine between the candidate's target-restricted tag vector and
//     the target indicator vector, i.e. sqrt(|overlap| / |targets|)
//   - popularity: item weight, min-max normalized across the surviving pool
//   - novelty: 1 - popularity
//   - recency: release date min-max normalized across the catalog (newer is
//     higher), 0.5 when unknown
//
// The final score is alpha·tag_match + beta·novelty + gamma·recency + delta·popularity.
// Weights are independent multipliers and need not sum to one.
package scoring
