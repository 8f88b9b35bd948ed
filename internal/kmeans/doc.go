// Package kmeans implements spherical k-means over unit vectors.
//
// It learns the coarse partitions of the partitioned index. Similarity is the
// inner product, and centroids are re-normalized after every update step.
// Training is deterministic for a given seed.
package kmeans
