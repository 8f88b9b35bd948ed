// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("artifacts/v3/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// # Features
//
//   - Range reads for partial fetches
//   - Parallel multi-part downloads for whole artifacts
//   - Automatic pagination for listing
//   - Configurable prefix so several artifact sets can share a bucket
package s3
