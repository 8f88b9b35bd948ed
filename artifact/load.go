package artifact

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/model"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Concurrency bounds the number of artifacts fetched at once.
	Concurrency int
	// Observer, if set, is called once per artifact that was found.
	Observer func(name string, c Compression, size int)
}

// DefaultLoadOptions fetches all artifacts in parallel.
var DefaultLoadOptions = LoadOptions{
	Concurrency: 7,
}

// Load reads and validates a Context from store.
func Load(ctx context.Context, store blobstore.Store, optFns ...func(o *LoadOptions)) (*Context, error) {
	opts := DefaultLoadOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		p       Params
		ids     []model.ItemID
		csr     *csrMatrix
		tagRows [][]float32
	)

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	fetch := func(name string, required bool, parse func([]byte) error) {
		g.Go(func() error {
			data, found, err := readArtifact(gctx, store, name, opts.Observer)
			if err != nil {
				return err
			}
			if !found {
				if required {
					return model.NewMissingArtifactError(name, "not found", nil)
				}
				return nil
			}
			if err := parse(data); err != nil {
				return model.NewMissingArtifactError(name, "malformed", err)
			}
			return nil
		})
	}

	fetch(ItemVectorsName, true, func(b []byte) error {
		m, err := parseMatrix(b)
		p.ItemVectors = m
		return err
	})
	fetch(TagVectorsName, true, func(b []byte) error {
		m, err := parseMatrix(b)
		tagRows = m
		return err
	})
	fetch(AlignmentName, false, func(b []byte) error {
		m, err := parseMatrix(b)
		p.Alignment = m
		return err
	})
	fetch(WeightsName, true, func(b []byte) error {
		arr, err := parseNPY(b)
		if err != nil {
			return err
		}
		p.Weights, err = arr.Floats()
		return err
	})
	fetch(IncidenceName, true, func(b []byte) error {
		m, err := parseCSR(b)
		csr = m
		return err
	})
	fetch(IndexMapsName, true, func(b []byte) error {
		var err error
		ids, p.TagNames, err = parseIndexMaps(b)
		return err
	})
	fetch(ItemsName, false, func(b []byte) error {
		var err error
		p.Items, err = parseItems(b)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.ItemIDs = ids
	p.TagVectors = tagRows

	n, m := len(ids), len(p.TagNames)
	if csr.rows != n {
		return nil, inconsistent(IncidenceName, "rows", csr.rows, n)
	}
	if csr.cols != m {
		return nil, inconsistent(IncidenceName, "columns", csr.cols, m)
	}
	inc, err := NewIncidence(n, m, csr.rowTags())
	if err != nil {
		return nil, model.NewMissingArtifactError(IncidenceName, "malformed", err)
	}
	p.Incidence = inc

	return New(p)
}

func parseMatrix(b []byte) ([][]float32, error) {
	arr, err := parseNPY(b)
	if err != nil {
		return nil, err
	}
	return arr.Matrix()
}

// readArtifact tries name, name.zst and name.lz4 in that order.
func readArtifact(ctx context.Context, store blobstore.Store, name string, observe func(string, Compression, int)) ([]byte, bool, error) {
	for _, c := range compressionOrder {
		blobName := name + c.Suffix()
		raw, err := blobstore.ReadAll(ctx, store, blobName)
		if errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, model.NewMissingArtifactError(name, "read "+blobName, err)
		}
		data, err := decompress(c, raw)
		if err != nil {
			return nil, false, model.NewMissingArtifactError(name, fmt.Sprintf("decompress %s", c), err)
		}
		if observe != nil {
			observe(name, c, len(raw))
		}
		return data, true, nil
	}
	return nil, false, nil
}
