// Package embedding defines the pluggable embedding capability used by
// memory consolidation and retrieval, with a remote HTTP implementation, a
// deterministic local fallback, and an LRU cache decorator.
package embedding

import "context"

// Provider generates vector embeddings for text.
type Provider interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension returns the vector dimension this provider produces.
	Dimension() int

	// GetModel returns the model identifier for logging.
	GetModel() string
}
