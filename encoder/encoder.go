package encoder

import (
	"context"
	"errors"
)

// Encoder converts text into dense float32 vectors.
type Encoder interface {
	// EmbedBatch returns one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// ErrEmptyInput is returned when no text (or an empty text) is given.
var ErrEmptyInput = errors.New("encoder: empty input")

// Embed returns the embedding of a single text.
func Embed(ctx context.Context, e Encoder, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func float64sToFloat32s(src []float64) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = float32(v)
	}
	return dst
}
