package encoder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI embedding models.
const (
	// ModelOpenAI3Small is the small embedding model (1536 dims, customizable).
	ModelOpenAI3Small = "text-embedding-3-small"

	// ModelOpenAI3Large is the large embedding model (3072 dims, customizable).
	ModelOpenAI3Large = "text-embedding-3-large"
)

const (
	openAIMaxBatch     = 2048
	openAIDefaultDim   = 1536
	openAIDefaultModel = ModelOpenAI3Small
)

type config struct {
	model      string
	dim        int
	baseURL    string
	httpClient *http.Client
}

// Option configures an OpenAI encoder.
type Option func(*config)

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithDimension requests embeddings of the given width.
func WithDimension(dim int) Option {
	return func(c *config) { c.dim = dim }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// OpenAI implements Encoder using the OpenAI embeddings API.
type OpenAI struct {
	client *openai.Client
	model  string
	dim    int
}

var _ Encoder = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI encoder.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	cfg := config{
		model:      openAIDefaultModel,
		dim:        openAIDefaultDim,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		// Retries belong to the caller; a failed call aborts the request.
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAI{
		client: &client,
		model:  cfg.model,
		dim:    cfg.dim,
	}
}

// EmbedBatch returns embeddings for multiple texts.
// Batches larger than 2048 are split into multiple API calls.
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	result := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += openAIMaxBatch {
		end := min(i+openAIMaxBatch, len(texts))

		vecs, err := o.callAPI(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		copy(result[i:], vecs)
	}
	return result, nil
}

// Dimension returns the configured vector dimensionality.
func (o *OpenAI) Dimension() int {
	return o.dim
}

// Model returns the model identifier.
func (o *OpenAI) Model() string {
	return o.model
}

func (o *OpenAI) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model:          o.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Dimensions:     openai.Int(int64(o.dim)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		idx := item.Index
		if idx < 0 || idx >= int64(len(texts)) {
			return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", idx, len(texts))
		}
		if len(item.Embedding) != o.dim {
			return nil, fmt.Errorf("embedding %d has %d dims, want %d", idx, len(item.Embedding), o.dim)
		}
		vecs[idx] = float64sToFloat32s(item.Embedding)
	}

	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return vecs, nil
}
