package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/recgo/artifact"
	"github.com/hupe1980/recgo/distance"
	"github.com/hupe1980/recgo/encoder"
	"github.com/hupe1980/recgo/model"
)

// Options configures a Builder.
type Options struct {
	// TagNudge scales the target/avoid tag centroid bias. Zero disables it.
	TagNudge float32
}

// DefaultOptions for a Builder.
var DefaultOptions = Options{
	TagNudge: 0.25,
}

// Builder turns intents into query vectors.
type Builder struct {
	sc   *artifact.Context
	enc  encoder.Encoder
	opts Options
}

// NewBuilder creates a Builder. enc may be nil if vibe and hybrid queries are
// never built.
func NewBuilder(sc *artifact.Context, enc encoder.Encoder, optFns ...func(o *Options)) (*Builder, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TagNudge < 0 {
		return nil, &model.ConfigurationError{Option: "query.tag_nudge", Value: opts.TagNudge, Reason: "must be non-negative"}
	}
	return &Builder{sc: sc, enc: enc, opts: opts}, nil
}

// Build returns the unit query vector of in.
func (b *Builder) Build(ctx context.Context, in *model.Intent) ([]float32, error) {
	if in == nil || in.Query == nil {
		return nil, &model.InvalidIntentError{Field: "mode", Reason: "required"}
	}

	var (
		q   []float32
		err error
	)
	switch p := in.Query.(type) {
	case model.SimilarQuery:
		q, err = b.similar(p.Seeds)
	case model.VibeQuery:
		q, err = b.vibe(ctx, p.Phrases)
	case model.HybridQuery:
		q, err = b.hybrid(ctx, p)
	default:
		return nil, &model.InvalidIntentError{Field: "mode", Reason: fmt.Sprintf("unsupported query %T", p)}
	}
	if err != nil {
		return nil, err
	}

	return b.nudge(q, in.TargetTags, in.AvoidTags), nil
}

// similar averages the seed item vectors.
func (b *Builder) similar(seeds []model.ItemID) ([]float32, error) {
	if len(seeds) == 0 {
		return nil, &model.InvalidIntentError{Field: "games", Reason: "required for this mode"}
	}

	vecs := make([][]float32, len(seeds))
	for i, id := range seeds {
		row, ok := b.sc.Row(id)
		if !ok {
			return nil, &model.InvalidIntentError{Field: "games", Reason: fmt.Sprintf("unknown item id %d", id)}
		}
		vecs[i] = b.sc.ItemVector(row)
	}

	q, ok := distance.NormalizeL2Copy(distance.Mean(vecs))
	if !ok {
		return nil, &model.InvalidIntentError{Field: "games", Reason: "seed vectors sum to zero"}
	}
	return q, nil
}

// vibe embeds, projects and averages the phrases.
func (b *Builder) vibe(ctx context.Context, phrases []string) ([]float32, error) {
	texts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			texts = append(texts, p)
		}
	}
	if len(texts) == 0 {
		return nil, &model.InvalidIntentError{Field: "phrases", Reason: "required for this mode"}
	}
	if !b.sc.HasAlignment() {
		return nil, model.NewMissingArtifactError(artifact.AlignmentName, "required for text queries", nil)
	}
	if b.enc == nil {
		return nil, &model.ConfigurationError{Option: "encoder", Value: nil, Reason: "required for text queries"}
	}

	embs, err := b.enc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, asCollaboratorError(err)
	}

	projected := make([][]float32, len(embs))
	for i, e := range embs {
		if projected[i], err = b.sc.Project(e); err != nil {
			return nil, err
		}
	}

	q, ok := distance.NormalizeL2Copy(distance.Mean(projected))
	if !ok {
		return nil, &model.InvalidIntentError{Field: "phrases", Reason: "phrases do not map into the item space"}
	}
	return q, nil
}

// hybrid blends the similar and vibe vectors. A zero-weight side is not computed.
func (b *Builder) hybrid(ctx context.Context, p model.HybridQuery) ([]float32, error) {
	w, err := p.Weights.Normalize()
	if err != nil {
		return nil, err
	}

	var s, v []float32
	if w.Similar > 0 {
		if s, err = b.similar(p.Seeds); err != nil {
			return nil, err
		}
	}
	if w.Vibe > 0 {
		if v, err = b.vibe(ctx, p.Phrases); err != nil {
			return nil, err
		}
	}

	switch {
	case v == nil:
		return s, nil
	case s == nil:
		return v, nil
	}

	q := make([]float32, len(s))
	distance.AddScaled(q, float32(w.Similar), s)
	distance.AddScaled(q, float32(w.Vibe), v)
	if !distance.NormalizeL2InPlace(q) {
		return nil, &model.InvalidIntentError{Field: "weights", Reason: "similar and vibe vectors cancel out"}
	}
	return q, nil
}

// nudge adds TagNudge·(target centroid − avoid centroid) and renormalizes.
// Unknown tags are ignored; q is returned unchanged when nothing applies.
func (b *Builder) nudge(q []float32, target, avoid []string) []float32 {
	if b.opts.TagNudge == 0 {
		return q
	}
	t := b.tagCentroid(target)
	a := b.tagCentroid(avoid)
	if t == nil && a == nil {
		return q
	}

	out := make([]float32, len(q))
	copy(out, q)
	if t != nil {
		distance.AddScaled(out, b.opts.TagNudge, t)
	}
	if a != nil {
		distance.AddScaled(out, -b.opts.TagNudge, a)
	}
	if !distance.NormalizeL2InPlace(out) {
		return q
	}
	return out
}

// tagCentroid returns the unit mean of the known tags' vectors, or nil.
func (b *Builder) tagCentroid(tags []string) []float32 {
	var vecs [][]float32
	for _, name := range tags {
		if c, ok := b.sc.TagIndex(name); ok {
			vecs = append(vecs, b.sc.TagVector(c))
		}
	}
	if len(vecs) == 0 {
		return nil
	}
	c, ok := distance.NormalizeL2Copy(distance.Mean(vecs))
	if !ok {
		return nil
	}
	return c
}

func asCollaboratorError(err error) error {
	if errors.Is(err, model.ErrCollaborator) {
		return err
	}
	return model.NewCollaboratorError("text encoder", err)
}
