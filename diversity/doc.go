// Package diversity selects the final recommendation list with Maximal
// Marginal Relevance (MMR).
//
// At each step the candidate maximizing
//
//	lambda·final(c) − (1 − lambda)·max_{s∈S} cos(c, s)
//
// is moved from the pool to the selected list S. Ties go to the higher final
// score, then the lower item id. Similarities are computed lazily against the
// most recent pick only, so a selection of k items costs O(k·|pool|) cosine
// evaluations and no pairwise matrix is built.
package diversity
