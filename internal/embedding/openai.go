package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tour_guide_rag/internal/keyword"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultModel      = openai.EmbeddingModelTextEmbedding3Small
	DefaultDimensions = 1536
	DefaultMaxChars   = 8000
	DefaultTimeout    = 15 * time.Second
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("embedding: api key not configured")
	// ErrEmpty is returned when the provider answers without a vector.
	ErrEmpty = errors.New("embedding: empty response")
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	MaxChars   int
	Timeout    time.Duration
}

// OpenAI calls the embeddings endpoint through the official SDK.
type OpenAI struct {
	client openai.Client
	cfg    Config
}

func NewOpenAI(cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), cfg: cfg}
}

func (o *OpenAI) Dimensions() int { return o.cfg.Dimensions }

// Embed truncates text to the configured rune budget and requests one vector.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if o.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      o.cfg.Model,
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(keyword.TruncateRunes(text, o.cfg.MaxChars))},
		Dimensions: openai.Int(int64(o.cfg.Dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmpty
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
