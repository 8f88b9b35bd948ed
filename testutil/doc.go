// Package testutil provides testing utilities for recgo.
//
// This package is intended for use in tests only. It provides helpers for
// generating random vectors, computing exact nearest neighbors, verifying
// search recall, and a small deterministic catalog fixture.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UnitVectors(1000, 32)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceTopN(vecs, ids, query, 10, nil)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
//
// # Fixture Catalog
//
//	ctx := testutil.FixtureContext()
package testutil
