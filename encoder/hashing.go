package encoder

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/recgo/distance"
)

// Hashing is a deterministic bag-of-words encoder based on signed feature
// hashing. It needs no network and is used for tests, demos and offline runs.
//
// Every lower-cased token contributes ±1 to one of Dimension buckets; the
// whole phrase also contributes once so multi-word tags hash consistently.
// Output vectors are unit length (or zero for texts without tokens).
type Hashing struct {
	dim int
}

var _ Encoder = (*Hashing)(nil)

// NewHashing creates a hashing encoder with dim buckets.
func NewHashing(dim int) *Hashing {
	return &Hashing{dim: max(dim, 1)}
}

// Dimension returns the number of buckets.
func (h *Hashing) Dimension() int { return h.dim }

// EmbedBatch encodes every text independently.
func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(t)
	}
	return out, nil
}

// Bucket returns the bucket and sign a token hashes to.
func (h *Hashing) Bucket(token string) (int, float32) {
	sum := xxhash.Sum64String(token)
	sign := float32(1)
	if sum>>63 == 1 {
		sign = -1
	}
	return int(sum % uint64(h.dim)), sign
}

func (h *Hashing) embed(text string) []float32 {
	v := make([]float32, h.dim)

	phrase := strings.Join(tokenize(text), " ")
	if phrase == "" {
		return v
	}
	b, s := h.Bucket(phrase)
	v[b] += s

	tokens := tokenize(text)
	if len(tokens) > 1 {
		for _, tok := range tokens {
			b, s := h.Bucket(tok)
			v[b] += s
		}
	}
	distance.NormalizeL2InPlace(v)
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
