package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/hupe1980/recgo/blobstore"
)

// Client is the subset of the S3 API used by Store.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var (
	_ blobstore.Store   = (*Store)(nil)
	_ blobstore.Fetcher = (*Store)(nil)
	_ Client            = (*s3.Client)(nil)
)

// Store reads artifacts from an S3 bucket.
type Store struct {
	client Client
	bucket string
	prefix string

	partSize    int64
	concurrency int
}

// Options configures New.
type Options struct {
	Prefix   string
	Region   string
	Endpoint string
	// PartSize is the byte size of each ranged GET of a parallel download.
	PartSize int64
	// Concurrency is the number of parallel GETs of a download.
	Concurrency int
}

// WithPrefix sets the key prefix (e.g. "artifacts/v3/").
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion overrides the region from the shared AWS configuration.
func WithRegion(region string) func(*Options) {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint points the client at a custom S3-compatible endpoint and
// enables path-style addressing.
func WithEndpoint(endpoint string) func(*Options) {
	return func(o *Options) { o.Endpoint = endpoint }
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...func(*Options)) (*Store, error) {
	opts := Options{
		PartSize:    manager.DefaultDownloadPartSize,
		Concurrency: manager.DefaultDownloadConcurrency,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	s := NewStore(client, bucket, opts.Prefix)
	s.partSize = opts.PartSize
	s.concurrency = opts.Concurrency
	return s, nil
}

// NewStore wraps an existing client. prefix is joined in front of every
// artifact name.
func NewStore(client Client, bucket, prefix string) *Store {
	return &Store{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		partSize:    manager.DefaultDownloadPartSize,
		concurrency: manager.DefaultDownloadConcurrency,
	}
}

func (s *Store) objectKey(name string) string { return path.Join(s.prefix, name) }

func (s *Store) input(key string) *s3.GetObjectInput {
	return &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}
}

// Open heads the object and returns a handle that reads by byte range.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.objectKey(name)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &rangeBlob{ctx: ctx, store: s, key: key, size: aws.ToInt64(head.ContentLength)}, nil
}

// Fetch downloads a whole artifact with parallel ranged GETs.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, b.Size()))
	downloader := manager.NewDownloader(s.client, func(d *manager.Downloader) {
		d.PartSize = s.partSize
		d.Concurrency = s.concurrency
	})
	if _, err := downloader.Download(ctx, buf, s.input(s.objectKey(name))); err != nil {
		return nil, translateError(err)
	}
	return buf.Bytes(), nil
}

// List returns artifact names under prefix, relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})

	var names []string
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, translateError(err)
		}
		for _, obj := range page.Contents {
			names = append(names, strings.TrimLeft(strings.TrimPrefix(aws.ToString(obj.Key), s.prefix), "/"))
		}
	}
	slices.Sort(names)
	return names, nil
}

// translateError maps the SDK's not-found shapes onto blobstore.ErrNotFound.
func translateError(err error) error {
	var (
		nf  *types.NotFound
		nsk *types.NoSuchKey
		ae  smithy.APIError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &nsk):
	case errors.As(err, &ae) && (ae.ErrorCode() == "NotFound" || ae.ErrorCode() == "NoSuchKey"):
	default:
		return err
	}
	return fmt.Errorf("%w: %v", blobstore.ErrNotFound, err)
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

	in := b.store.input(b.key)
	in.Range = aws.String(fmt.Sprintf("bytes=%d-%d", off, last))
	resp, err := b.store.client.GetObject(b.ctx, in)
	if err != nil {
		return 0, translateError(err)
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, p[:last-off+1])
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}
