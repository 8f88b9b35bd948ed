// Package model defines core types used throughout recgo.
//
// # Identity Types
//
//   - ItemID: Catalog-facing item identifier (e.g. a store app id)
//   - Row: Dense matrix row index of an item in the static artifacts
//
// # Request Types
//
//   - Intent: A parsed recommendation request. Its Query field is a closed
//     variant over SimilarQuery, VibeQuery and HybridQuery.
//   - Constraints: Hard filters on item attributes
//   - ScoringWeights: Multipliers for the scoring components
//
// # Result Types
//
//   - Candidate: Retrieval hit with raw similarity
//   - ScoredCandidate: Candidate with component scores and final score
//   - Recommendation: Ranked output entry
//
// # Errors
//
// Every stage reports failures through the typed errors in this package.
// Match categories with errors.Is against the Err* sentinels:
//
//	if errors.Is(err, model.ErrInvalidIntent) { ... }
package model
