package embeddings

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"athena/pkg/errors"
	"athena/pkg/logger"
)

// Service produces vector embeddings for situation texts.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// OpenAIService generates embeddings using the official OpenAI Go SDK.
type OpenAIService struct {
	client     openai.Client
	model      openai.EmbeddingModel
	dimensions int
	timeout    time.Duration
	log        *logger.Logger
}

var _ Service = (*OpenAIService)(nil)

// NewOpenAIService creates an OpenAI embedding service.
func NewOpenAIService(apiKey string, model string, timeout time.Duration) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrMissingCredentials, "openai API key is required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIService{
		client:     client,
		model:      openai.EmbeddingModel(model),
		dimensions: dimensionsFor(model),
		timeout:    timeout,
		log:        logger.Get().With("component", "openai_embeddings", "model", model),
	}, nil
}

// Embed creates a vector embedding for the given text.
func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: s.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "openai embedding call failed")
	}
	if len(response.Data) == 0 {
		return nil, errors.Wrap(errors.ErrInternal, "no embedding data returned")
	}

	// Convert []float64 to []float32 for pgvector compatibility
	embeddingData := response.Data[0].Embedding
	result := make([]float32, len(embeddingData))
	for i, val := range embeddingData {
		result[i] = float32(val)
	}

	s.log.Debugw("generated embedding",
		"text_length", len(text),
		"dims", len(result),
		"tokens_used", response.Usage.TotalTokens)

	return result, nil
}

// Dimensions returns the dimensionality of generated embeddings.
func (s *OpenAIService) Dimensions() int {
	return s.dimensions
}

func dimensionsFor(model string) int {
	switch model {
	case openai.EmbeddingModelTextEmbedding3Large:
		return 3072
	default:
		return 1536
	}
}
