// Package config loads process configuration for the recgo command.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// RECGO_* environment variables (RECGO_RETRIEVAL_TOP_N sets retrieval.top_n).
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
)

// Config is the complete process configuration.
type Config struct {
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Selection SelectionConfig `koanf:"selection"`
	Query     QueryConfig     `koanf:"query"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Encoder   EncoderConfig   `koanf:"encoder"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
}

// RetrievalConfig configures the candidate index.
type RetrievalConfig struct {
	TopN           int    `koanf:"top_n" validate:"gt=0"`
	IndexType      string `koanf:"index_type" validate:"required"`
	GraphDegree    int    `koanf:"graph_degree" validate:"gte=2"`
	EfConstruction int    `koanf:"ef_construction" validate:"gte=1"`
	EfSearch       int    `koanf:"ef_search" validate:"gte=1"`
	Partitions     int    `koanf:"partitions" validate:"gte=0"` // 0 = min(100, N/10)
	Probes         int    `koanf:"probes" validate:"gte=1"`
	Seed           int64  `koanf:"seed"`
	Workers        int    `koanf:"workers" validate:"gte=0"` // 0 = GOMAXPROCS
}

// ScoringConfig holds the final score weights and the avoid-tag threshold.
type ScoringConfig struct {
	Alpha             float64 `koanf:"alpha" validate:"gte=0"`
	Beta              float64 `koanf:"beta" validate:"gte=0"`
	Gamma             float64 `koanf:"gamma" validate:"gte=0"`
	Delta             float64 `koanf:"delta" validate:"gte=0"`
	AvoidTagThreshold float64 `koanf:"avoid_tag_threshold" validate:"gte=0,lt=1"`
	Workers           int     `koanf:"workers" validate:"gte=0"`
}

// SelectionConfig configures MMR.
type SelectionConfig struct {
	K      int     `koanf:"k" validate:"gt=0"`
	Lambda float64 `koanf:"lambda" validate:"gte=0,lte=1"`
}

// QueryConfig configures query construction.
type QueryConfig struct {
	TagNudge float64 `koanf:"tag_nudge" validate:"gte=0"`
}

// ArtifactsConfig locates the static artifacts.
type ArtifactsConfig struct {
	Source      string `koanf:"source" validate:"oneof=local s3 minio"`
	Dir         string `koanf:"dir"`
	Bucket      string `koanf:"bucket"`
	Prefix      string `koanf:"prefix"`
	Endpoint    string `koanf:"endpoint"`
	Region      string `koanf:"region"`
	AccessKey   string `koanf:"access_key"`
	SecretKey   string `koanf:"secret_key"`
	Insecure    bool   `koanf:"insecure"`
	Concurrency int    `koanf:"concurrency" validate:"gte=0"`
}

// EncoderConfig selects and guards the text encoder.
type EncoderConfig struct {
	Kind             string        `koanf:"kind" validate:"oneof=hashing openai"`
	Model            string        `koanf:"model"`
	BaseURL          string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey           string        `koanf:"api_key"`
	Dimension        int           `koanf:"dimension" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gte=0"`
	Rate             float64       `koanf:"rate" validate:"gte=0"`
	Burst            int           `koanf:"burst" validate:"gte=0"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	MaxInFlight     int64         `koanf:"max_in_flight" validate:"gt=0"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			TopN:           recgo.DefaultTopN,
			IndexType:      string(recgo.DefaultIndexKind),
			GraphDegree:    index.DefaultConfig.GraphDegree,
			EfConstruction: index.DefaultConfig.EfConstruction,
			EfSearch:       index.DefaultConfig.EfSearch,
			Partitions:     0,
			Probes:         index.DefaultConfig.Probes,
			Seed:           index.DefaultConfig.Seed,
		},
		Scoring: ScoringConfig{
			Alpha:   model.DefaultScoringWeights.Alpha,
			Beta:    model.DefaultScoringWeights.Beta,
			Gamma:   model.DefaultScoringWeights.Gamma,
			Delta:   model.DefaultScoringWeights.Delta,
			Workers: 4,
		},
		Selection: SelectionConfig{
			K:      10,
			Lambda: 0.5,
		},
		Query: QueryConfig{
			TagNudge: 0.25,
		},
		Artifacts: ArtifactsConfig{
			Source: "local",
			Dir:    "./artifacts",
		},
		Encoder: EncoderConfig{
			Kind:             "hashing",
			Model:            "text-embedding-3-small",
			Dimension:        384,
			Timeout:          5 * time.Second,
			Rate:             20,
			Burst:            5,
			FailureThreshold: 5,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxInFlight:     64,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// IndexKind returns the parsed retrieval backend.
func (c *Config) IndexKind() (index.Kind, error) {
	return index.ParseKind(c.Retrieval.IndexType)
}

// IndexConfig returns the backend construction parameters.
func (c *Config) IndexConfig() index.Config {
	return index.Config{
		GraphDegree:    c.Retrieval.GraphDegree,
		EfConstruction: c.Retrieval.EfConstruction,
		EfSearch:       c.Retrieval.EfSearch,
		Partitions:     c.Retrieval.Partitions,
		Probes:         c.Retrieval.Probes,
		Seed:           c.Retrieval.Seed,
		Workers:        c.Retrieval.Workers,
	}
}

// ScoringWeights returns alpha, beta, gamma and delta.
func (c *Config) ScoringWeights() model.ScoringWeights {
	return model.ScoringWeights{
		Alpha: c.Scoring.Alpha,
		Beta:  c.Scoring.Beta,
		Gamma: c.Scoring.Gamma,
		Delta: c.Scoring.Delta,
	}
}

// LogLevel parses Log.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Options translates the configuration into recommender options. The
// encoder and the metrics collector are wired by the caller.
func (c *Config) Options() ([]recgo.Option, error) {
	kind, err := c.IndexKind()
	if err != nil {
		return nil, err
	}
	icfg := c.IndexConfig()

	return []recgo.Option{
		recgo.WithIndexKind(kind),
		recgo.WithIndexConfig(func(ic *index.Config) { *ic = icfg }),
		recgo.WithTopN(c.Retrieval.TopN),
		recgo.WithScoringWeights(c.ScoringWeights()),
		recgo.WithAvoidTagThreshold(c.Scoring.AvoidTagThreshold),
		recgo.WithScoringWorkers(c.Scoring.Workers),
		recgo.WithK(c.Selection.K),
		recgo.WithLambda(c.Selection.Lambda),
		recgo.WithTagNudge(float32(c.Query.TagNudge)),
		recgo.WithLoadConcurrency(c.Artifacts.Concurrency),
	}, nil
}
