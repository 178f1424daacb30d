package embedding

import (
	"context"
	"crypto/sha256"
	"math"
	"strings"
)

// localDimension is the vector size produced by the local provider.
const localDimension = 64

// Local is a deterministic, dependency-free embedding provider. It hashes
// each token into a fixed number of buckets and L2-normalizes the result,
// so identical texts map to identical vectors and token overlap yields
// nonzero cosine similarity. It exists so the engine stays fully functional
// when no embedding service is configured; retrieval quality is reduced,
// not absent.
type Local struct{}

var _ Provider = Local{}

// Embed returns the hashed bag-of-tokens vector for text.
func (Local) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, localDimension)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(token))
		bucket := int(sum[0]) % localDimension
		// Second hash byte picks the sign so buckets don't only accumulate.
		if sum[1]%2 == 0 {
			vec[bucket] += 1.0
		} else {
			vec[bucket] -= 1.0
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec, nil
}

// Dimension returns the fixed local vector dimension.
func (Local) Dimension() int { return localDimension }

// GetModel returns "local-hash".
func (Local) GetModel() string { return "local-hash" }
