package interfaces

import "context"

// EmbeddingProvider converts a batch of texts into vectors of a fixed
// dimension. Implementations handle their own authentication; retry policy is
// applied by the caller.
type EmbeddingProvider interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, batch []string) ([][]float32, error)

	// Dimension returns the provider's fixed vector dimensionality
	Dimension() int

	// ModelName identifies the deployment/model for audit logging
	ModelName() string
}
