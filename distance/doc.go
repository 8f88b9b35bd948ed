// Package distance provides the similarity primitives used by recgo.
//
// Retrieval similarity is the inner product of L2-normalized vectors, which
// equals cosine similarity. Zero vectors stay zero after normalization and
// score 0 against everything.
//
// # Usage
//
//	unit, ok := distance.NormalizeL2Copy(vec)
//	sim := distance.Dot(unit, other)
//	mean := distance.Mean(vectors)
package distance
