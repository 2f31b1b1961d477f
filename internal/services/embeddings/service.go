package embeddings

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Service wraps an embedding provider with the retry policy. A batch that
// still fails after the final attempt is reported to the caller as an error;
// the caller drops the batch rather than aborting the run.
type Service struct {
	provider interfaces.EmbeddingProvider
	policy   *RetryPolicy
	logger   arbor.ILogger
}

// NewService creates an embedding service around a provider
func NewService(provider interfaces.EmbeddingProvider, policy *RetryPolicy, logger arbor.ILogger) *Service {
	if policy == nil {
		policy = NewRetryPolicy(0)
	}
	return &Service{
		provider: provider,
		policy:   policy,
		logger:   logger,
	}
}

// NewProvider constructs the configured embedding provider
func NewProvider(ctx context.Context, cfg *common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
	switch cfg.Provider {
	case common.EmbeddingProviderAzure:
		return NewAzureProvider(cfg, logger)
	case common.EmbeddingProviderGemini:
		return NewGeminiProvider(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// EmbedBatch embeds one batch of texts with retry. Returns one vector per
// input on success.
func (s *Service) EmbedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	err := s.policy.Execute(ctx, s.logger, func() error {
		var embedErr error
		vectors, embedErr = s.provider.Embed(ctx, batch)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedding batch of %d failed: %w", len(batch), err)
	}

	s.logger.Debug().
		Int("batch_size", len(batch)).
		Str("model", s.provider.ModelName()).
		Msg("Embedded batch")

	return vectors, nil
}

// Dimension returns the provider's vector dimensionality
func (s *Service) Dimension() int {
	return s.provider.Dimension()
}
