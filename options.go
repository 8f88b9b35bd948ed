package recgo

import (
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/recgo/diversity"
	"github.com/hupe1980/recgo/encoder"
	"github.com/hupe1980/recgo/index"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/scoring"
)

// DefaultTopN is the default retrieval pool size.
const DefaultTopN = 500

// DefaultIndexKind is the backend built when no WithIndexKind option is given.
const DefaultIndexKind = index.KindGraph

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	encoder          encoder.Encoder

	indexKind   index.Kind
	indexConfig index.Config
	topN        int

	query     query.Options
	scoring   scoring.Options
	selection diversity.Options

	loadConcurrency int
}

// Option configures a Recommender.
type Option func(*options)

// WithLogger sets the structured logger. If nil, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr at the given level.
//
// Example:
//
//	rec, err := recgo.New(ctx, sc, recgo.WithLogLevel(slog.LevelDebug))
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(os.Stderr, level)
	}
}

// WithLogOutput installs a logger writing to w in the given format
// ("json" or "text").
func WithLogOutput(w io.Writer, format string, level slog.Level) Option {
	return func(o *options) {
		if format == "json" {
			o.logger = NewJSONLogger(w, level)
			return
		}
		o.logger = NewTextLogger(w, level)
	}
}

// WithMetricsCollector sets the metrics sink. If nil, metrics are disabled.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithEncoder sets the text encoder used for vibe and hybrid queries.
// Without one, such queries fail with a configuration error.
func WithEncoder(e encoder.Encoder) Option {
	return func(o *options) {
		o.encoder = e
	}
}

// WithIndexKind selects the retrieval backend.
func WithIndexKind(kind index.Kind) Option {
	return func(o *options) {
		o.indexKind = kind
	}
}

// WithIndexConfig tunes backend construction parameters. Dimension is always
// taken from the static context.
func WithIndexConfig(fn func(c *index.Config)) Option {
	return func(o *options) {
		fn(&o.indexConfig)
	}
}

// WithTopN sets the retrieval pool size.
func WithTopN(n int) Option {
	return func(o *options) {
		o.topN = n
	}
}

// WithTagNudge sets the strength of the target/avoid tag bias on the query vector.
func WithTagNudge(c float32) Option {
	return func(o *options) {
		o.query.TagNudge = c
	}
}

// WithScoringWeights sets alpha, beta, gamma and delta.
func WithScoringWeights(w model.ScoringWeights) Option {
	return func(o *options) {
		o.scoring.Weights = w
	}
}

// WithAvoidTagThreshold sets the tolerated share of avoid tags per candidate.
func WithAvoidTagThreshold(t float64) Option {
	return func(o *options) {
		o.scoring.AvoidTagThreshold = t
	}
}

// WithScoringWorkers bounds scoring parallelism.
func WithScoringWorkers(n int) Option {
	return func(o *options) {
		o.scoring.Workers = n
	}
}

// WithK sets the number of recommendations returned.
func WithK(k int) Option {
	return func(o *options) {
		o.selection.K = k
	}
}

// WithLambda sets the MMR relevance/diversity trade-off.
func WithLambda(lambda float64) Option {
	return func(o *options) {
		o.selection.Lambda = lambda
	}
}

// WithLoadConcurrency bounds parallel artifact reads in Open.
func WithLoadConcurrency(n int) Option {
	return func(o *options) {
		o.loadConcurrency = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		indexKind:        DefaultIndexKind,
		indexConfig:      index.DefaultConfig,
		topN:             DefaultTopN,
		query:            query.DefaultOptions,
		scoring:          scoring.DefaultOptions,
		selection:        diversity.DefaultOptions,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

func (o options) validate() error {
	if o.topN <= 0 {
		return &ConfigurationError{Option: "top_n", Value: o.topN, Reason: "must be positive"}
	}
	return o.selection.Validate()
}
