package embed

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable signals that no embedding could be obtained. Callers are
// required to fall back to lexical matching; the error is never fatal.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider is the injected embedding capability. Implementations may be
// slow or down; every caller must have a lexical fallback path.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Embed returns the vector for text, or ErrUnavailable (possibly
	// wrapped) when no vector can be produced.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Available reports whether the provider is configured and reachable.
	Available(ctx context.Context) bool
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero-magnitude vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
