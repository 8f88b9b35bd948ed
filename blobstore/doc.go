// Package blobstore provides read-only access to the static artifacts a
// recommender is loaded from.
//
// Store implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with mmap support
//   - MemoryStore: In-memory blobs, used by tests and fixtures
//   - s3.Store: Amazon S3 with range reads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Missing blobs must satisfy errors.Is(err, ErrNotFound).
package blobstore
