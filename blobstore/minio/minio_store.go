package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/recgo/blobstore"
)

var (
	_ blobstore.Store   = (*Store)(nil)
	_ blobstore.Fetcher = (*Store)(nil)
)

// Store reads artifacts from a MinIO (or any S3-compatible) bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// Options configures New.
type Options struct {
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
}

// WithStaticCredentials sets static V4 credentials.
func WithStaticCredentials(accessKey, secretKey string) func(*Options) {
	return func(o *Options) {
		o.AccessKey = accessKey
		o.SecretKey = secretKey
	}
}

// WithInsecure talks plain HTTP.
func WithInsecure() func(*Options) {
	return func(o *Options) { o.Secure = false }
}

// WithRegion sets the bucket region.
func WithRegion(region string) func(*Options) {
	return func(o *Options) { o.Region = region }
}

// New connects to endpoint and returns a Store for bucket. Without static
// credentials, MINIO_ROOT_USER/MINIO_ACCESS_KEY or the AWS_* variables are
// read from the environment.
func New(endpoint, bucket, prefix string, optFns ...func(*Options)) (*Store, error) {
	opts := Options{Secure: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	var creds *credentials.Credentials
	if opts.AccessKey != "" {
		creds = credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvMinio{},
			&credentials.EnvAWS{},
		})
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", endpoint, err)
	}
	return NewStore(client, bucket, prefix), nil
}

// NewStore wraps an existing client. prefix is joined in front of every
// artifact name.
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) objectKey(name string) string { return path.Join(s.prefix, name) }

// Open stats the object and returns a handle that reads by byte range.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.objectKey(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	return &rangeBlob{ctx: ctx, store: s, key: key, size: info.Size}, nil
}

// Fetch downloads a whole object in one request.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, translateError(err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translateError(err)
	}
	return data, nil
}

// List returns artifact names under prefix, relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.objectKey(prefix),
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, translateError(obj.Err)
		}
		if name := strings.TrimLeft(strings.TrimPrefix(obj.Key, s.prefix), "/"); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func translateError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return fmt.Errorf("%w: %v", blobstore.ErrNotFound, err)
	}
	return err
}

type rangeBlob struct {
	ctx   context.Context
	store *Store
	key   string
	size  int64
}

func (b *rangeBlob) Size() int64  { return b.size }
func (b *rangeBlob) Close() error { return nil }

func (b *rangeBlob) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	last := min(off+int64(len(p)), b.size) - 1

	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, last); err != nil {
		return 0, err
	}
	obj, err := b.store.client.GetObject(b.ctx, b.store.bucket, b.key, opts)
	if err != nil {
		return 0, translateError(err)
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:last-off+1])
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}
