// Package encoder provides the text-encoder collaborator used by vibe queries.
//
// An Encoder turns free-text phrases into dense embeddings. The embeddings
// are projected into the item space by the alignment matrix of the static
// context, so Dimension must match the number of alignment rows.
//
// # Implementations
//
//   - [OpenAI]: OpenAI (or any OpenAI-compatible) embeddings API
//   - [Hashing]: deterministic, offline feature-hashing encoder
//
// Remote encoders should be wrapped in [Guarded], which adds a per-call
// timeout, client-side rate limiting and a circuit breaker, and reports
// every failure as a *model.CollaboratorError.
//
// # Quick Start
//
//	e := encoder.NewOpenAI(apiKey, encoder.WithModel(encoder.ModelOpenAI3Small), encoder.WithDimension(256))
//	g := encoder.NewGuarded(e, encoder.DefaultGuardOptions)
//	vecs, err := g.EmbedBatch(ctx, []string{"cozy", "pixel art"})
package encoder
