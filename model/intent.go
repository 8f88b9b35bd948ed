package model

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Mode names a query construction strategy.
type Mode string

const (
	// ModeSimilar builds the query from the seed games alone.
	ModeSimilar Mode = "similar"
	// ModeVibe builds the query from free text and tags.
	ModeVibe Mode = "vibe"
	// ModeHybrid blends the seed games with the vibe signal.
	ModeHybrid Mode = "hybrid"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSimilar, ModeVibe, ModeHybrid:
		return m, nil
	case "":
		return "", &InvalidIntentError{Field: "mode", Reason: "required"}
	default:
		return "", &InvalidIntentError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}

// Query is the mode-specific payload of an intent.
//
// It is a closed set: only SimilarQuery, VibeQuery and HybridQuery implement it.
type Query interface {
	Mode() Mode
	isQuery()
}

// SimilarQuery asks for items close to the average of the seed items.
type SimilarQuery struct {
	Seeds []ItemID
}

// VibeQuery asks for items matching free-text phrases.
type VibeQuery struct {
	Phrases []string
}

// HybridQuery blends a similar and a vibe query.
type HybridQuery struct {
	Seeds   []ItemID
	Phrases []string
	Weights BlendWeights
}

func (SimilarQuery) Mode() Mode { return ModeSimilar }
func (VibeQuery) Mode() Mode    { return ModeVibe }
func (HybridQuery) Mode() Mode  { return ModeHybrid }

func (SimilarQuery) isQuery() {}
func (VibeQuery) isQuery()    {}
func (HybridQuery) isQuery()  {}

// BlendWeights are the hybrid-mode multipliers of the similar and vibe vectors.
type BlendWeights struct {
	Similar float64 `json:"similar"`
	Vibe    float64 `json:"vibe"`
}

// DefaultBlendWeights is 0.5/0.5.
var DefaultBlendWeights = BlendWeights{Similar: 0.5, Vibe: 0.5}

// Normalize rejects negative weights and rescales the pair to sum to one.
func (w BlendWeights) Normalize() (BlendWeights, error) {
	if !isFinite(w.Similar) || w.Similar < 0 {
		return BlendWeights{}, &ConfigurationError{Option: "weights.similar", Value: w.Similar, Reason: "must be non-negative"}
	}
	if !isFinite(w.Vibe) || w.Vibe < 0 {
		return BlendWeights{}, &ConfigurationError{Option: "weights.vibe", Value: w.Vibe, Reason: "must be non-negative"}
	}
	sum := w.Similar + w.Vibe
	if sum == 0 {
		return BlendWeights{}, &ConfigurationError{Option: "weights", Value: w, Reason: "at least one weight must be positive"}
	}
	return BlendWeights{Similar: w.Similar / sum, Vibe: w.Vibe / sum}, nil
}

// Constraints are hard filters on item attributes. Nil / empty fields are unset.
type Constraints struct {
	PriceMax     *float64 `json:"price_max,omitempty"`
	PriceMin     *float64 `json:"price_min,omitempty"`
	Platform     string   `json:"platform,omitempty"`
	Language     string   `json:"language,omitempty"`
	Multiplayer  *bool    `json:"multiplayer,omitempty"`
	Singleplayer *bool    `json:"singleplayer,omitempty"`
	AgeRatingMax *int     `json:"age_rating_max,omitempty"`
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.PriceMax == nil && c.PriceMin == nil && c.Platform == "" && c.Language == "" &&
		c.Multiplayer == nil && c.Singleplayer == nil && c.AgeRatingMax == nil
}

// Validate rejects negative or contradictory bounds.
func (c Constraints) Validate() error {
	for _, b := range []struct {
		field string
		v     *float64
	}{
		{"constraints.price_max", c.PriceMax},
		{"constraints.price_min", c.PriceMin},
	} {
		if b.v != nil && (!isFinite(*b.v) || *b.v < 0) {
			return &InvalidIntentError{Field: b.field, Reason: "must be a finite, non-negative number"}
		}
	}
	if c.PriceMax != nil && c.PriceMin != nil && *c.PriceMin > *c.PriceMax {
		return &InvalidIntentError{Field: "constraints.price_min", Reason: "exceeds price_max"}
	}
	if c.AgeRatingMax != nil && *c.AgeRatingMax < 0 {
		return &InvalidIntentError{Field: "constraints.age_rating_max", Reason: "must be non-negative"}
	}
	return nil
}

// Intent is a parsed recommendation request.
type Intent struct {
	Query       Query
	TargetTags  []string
	AvoidTags   []string
	Constraints Constraints
}

// Mode returns the mode of the intent's query, or "" if the query is unset.
func (in *Intent) Mode() Mode {
	if in == nil || in.Query == nil {
		return ""
	}
	return in.Query.Mode()
}

// Seeds returns the seed items referenced by the query.
func (in *Intent) Seeds() []ItemID {
	if in == nil {
		return nil
	}
	switch q := in.Query.(type) {
	case SimilarQuery:
		return q.Seeds
	case HybridQuery:
		return q.Seeds
	default:
		return nil
	}
}

// intentJSON is the wire form of an intent.
type intentJSON struct {
	Mode        string      `json:"mode"`
	Games       []ItemID    `json:"games,omitempty"`
	Phrases     []string    `json:"phrases,omitempty"`
	TargetTags  []string    `json:"target_tags,omitempty"`
	AvoidTags   []string    `json:"avoid_tags,omitempty"`
	Constraints Constraints `json:"constraints"`
	Weights     *struct {
		Similar *float64 `json:"similar,omitempty"`
		Vibe    *float64 `json:"vibe,omitempty"`
	} `json:"weights,omitempty"`
}

// ParseIntent decodes the JSON form of an intent.
//
// Only structural problems (bad JSON, unknown mode) are reported here;
// mode-specific requirements are checked during query construction.
func ParseIntent(data []byte) (*Intent, error) {
	var raw intentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &InvalidIntentError{Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}

	mode, err := ParseMode(raw.Mode)
	if err != nil {
		return nil, err
	}

	in := &Intent{
		TargetTags:  normalizeTags(raw.TargetTags),
		AvoidTags:   normalizeTags(raw.AvoidTags),
		Constraints: raw.Constraints,
	}

	switch mode {
	case ModeSimilar:
		in.Query = SimilarQuery{Seeds: raw.Games}
	case ModeVibe:
		in.Query = VibeQuery{Phrases: raw.Phrases}
	case ModeHybrid:
		w := DefaultBlendWeights
		if raw.Weights != nil {
			if raw.Weights.Similar != nil {
				w.Similar = *raw.Weights.Similar
			}
			if raw.Weights.Vibe != nil {
				w.Vibe = *raw.Weights.Vibe
			}
		}
		in.Query = HybridQuery{Seeds: raw.Games, Phrases: raw.Phrases, Weights: w}
	}

	return in, nil
}

// MarshalJSON encodes the intent in its wire form.
func (in Intent) MarshalJSON() ([]byte, error) {
	raw := intentJSON{
		Mode:        string(in.Mode()),
		TargetTags:  in.TargetTags,
		AvoidTags:   in.AvoidTags,
		Constraints: in.Constraints,
	}
	switch q := in.Query.(type) {
	case SimilarQuery:
		raw.Games = q.Seeds
	case VibeQuery:
		raw.Phrases = q.Phrases
	case HybridQuery:
		raw.Games = q.Seeds
		raw.Phrases = q.Phrases
		s, v := q.Weights.Similar, q.Weights.Vibe
		raw.Weights = &struct {
			Similar *float64 `json:"similar,omitempty"`
			Vibe    *float64 `json:"vibe,omitempty"`
		}{Similar: &s, Vibe: &v}
	}
	return json.Marshal(raw)
}

// normalizeTags lower-cases, trims and de-duplicates tag names, keeping first-seen order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = NormalizeTag(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NormalizeTag is the canonical form used for tag vocabulary lookups.
func NormalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
