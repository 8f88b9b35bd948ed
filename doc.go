// Package recgo is an intent-driven game recommender over precomputed
// embeddings.
//
// A request is a structured intent (similar games, free-text vibe phrases,
// or a blend of both, plus tag preferences and hard constraints). The
// pipeline turns it into a unit query vector, retrieves a candidate pool
// from a vector index, removes candidates violating hard filters, scores
// the rest and picks a diverse final list with Maximal Marginal Relevance.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./artifacts")
//	rec, _ := recgo.Open(ctx, store,
//	    recgo.WithEncoder(encoder.NewHashing(384)),
//	    recgo.WithIndexKind(index.KindGraph),
//	)
//
//	in, _ := model.ParseIntent([]byte(`{"mode":"similar","games":[730],"constraints":{"price_max":60}}`))
//	res, _ := rec.Recommend(ctx, in)
//	for _, r := range res.Recommendations {
//	    fmt.Println(r.Rank, r.ItemID, r.Scores.Final)
//	}
//
// # Static Artifacts
//
// Item and tag vectors, the phrase alignment matrix, popularity weights,
// the item-tag incidence matrix and the id maps are read once into an
// immutable artifact.Context, from a local directory (blobstore), S3
// (blobstore/s3) or any S3-compatible server (blobstore/minio). The context
// is shared read-only by every request.
//
// # Retrieval Backends
//
// Three backends are registered: "exact" (brute-force scan), "approximate-graph"
// (HNSW) and "approximate-partitioned" (IVF). The published index can be
// rebuilt and swapped atomically with Recommender.Reindex; requests in flight
// finish against the index they started with.
//
// # Empty Results
//
// When hard filters remove every candidate, Recommend returns a Result with
// Status StatusEmpty and a nil error.
//
// # Observability
//
// Logging goes through Logger (log/slog); metrics through MetricsCollector.
// The metrics/prom package exports a Prometheus collector.
package recgo
