// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems such as Ceph,
// SeaweedFS and Garage.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "artifacts", "v3/",
//	    minio.WithStaticCredentials("minioadmin", "minioadmin"),
//	    minio.WithInsecure(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rec, err := recgo.New(ctx, recgo.WithArtifactStore(store))
package minio
