package main

import (
	"context"
	"io"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/blobstore"
	miniostore "github.com/hupe1980/recgo/blobstore/minio"
	s3store "github.com/hupe1980/recgo/blobstore/s3"
	"github.com/hupe1980/recgo/encoder"
	"github.com/hupe1980/recgo/internal/config"
	"github.com/hupe1980/recgo/model"
)

// app is the loaded process configuration plus its logger.
type app struct {
	cfg    *config.Config
	logger *recgo.Logger
}

func loadApp(flags *rootFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: newLogger(cfg, logOut)}, nil
}

func newLogger(cfg *config.Config, w io.Writer) *recgo.Logger {
	if cfg.Log.Format == "json" {
		return recgo.NewJSONLogger(w, cfg.LogLevel())
	}
	return recgo.NewTextLogger(w, cfg.LogLevel())
}

// openStore returns the blob store the artifacts are read from.
func openStore(ctx context.Context, a config.ArtifactsConfig) (blobstore.Store, error) {
	switch a.Source {
	case "s3":
		optFns := []func(*s3store.Options){s3store.WithPrefix(a.Prefix)}
		if a.Region != "" {
			optFns = append(optFns, s3store.WithRegion(a.Region))
		}
		if a.Endpoint != "" {
			optFns = append(optFns, s3store.WithEndpoint(a.Endpoint))
		}
		st, err := s3store.New(ctx, a.Bucket, optFns...)
		if err != nil {
			return nil, model.NewCollaboratorError("s3", err)
		}
		return st, nil
	case "minio":
		var optFns []func(*miniostore.Options)
		if a.AccessKey != "" {
			optFns = append(optFns, miniostore.WithStaticCredentials(a.AccessKey, a.SecretKey))
		}
		if a.Insecure {
			optFns = append(optFns, miniostore.WithInsecure())
		}
		if a.Region != "" {
			optFns = append(optFns, miniostore.WithRegion(a.Region))
		}
		st, err := miniostore.New(a.Endpoint, a.Bucket, a.Prefix, optFns...)
		if err != nil {
			return nil, model.NewCollaboratorError("minio", err)
		}
		return st, nil
	default:
		return blobstore.NewLocalStore(a.Dir), nil
	}
}

// newEncoder builds the text encoder. Remote encoders are wrapped with a
// timeout, a rate limiter and a circuit breaker.
func newEncoder(e config.EncoderConfig, onStateChange func(from, to gobreaker.State)) encoder.Encoder {
	if e.Kind != "openai" {
		return encoder.NewHashing(e.Dimension)
	}

	optFns := []encoder.Option{encoder.WithModel(e.Model)}
	if e.Dimension > 0 {
		optFns = append(optFns, encoder.WithDimension(e.Dimension))
	}
	if e.BaseURL != "" {
		optFns = append(optFns, encoder.WithBaseURL(e.BaseURL))
	}

	return encoder.NewGuarded(encoder.NewOpenAI(e.APIKey, optFns...), encoder.GuardOptions{
		Timeout:          e.Timeout,
		Rate:             e.Rate,
		Burst:            e.Burst,
		FailureThreshold: e.FailureThreshold,
		OpenTimeout:      encoder.DefaultGuardOptions.OpenTimeout,
		OnStateChange:    onStateChange,
	})
}

// openRecommender loads the artifacts and builds the configured index.
func openRecommender(ctx context.Context, a *app, mc recgo.MetricsCollector, onStateChange func(from, to gobreaker.State)) (*recgo.Recommender, error) {
	optFns, err := a.cfg.Options()
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, a.cfg.Artifacts)
	if err != nil {
		return nil, err
	}

	optFns = append(optFns,
		recgo.WithLogger(a.logger),
		recgo.WithMetricsCollector(mc),
		recgo.WithEncoder(newEncoder(a.cfg.Encoder, onStateChange)),
	)
	return recgo.Open(ctx, store, optFns...)
}
