package embed

import (
	"fmt"
	"strings"
	"time"

	"github.com/fredpottier/kbgraph/internal/cache"
	"github.com/fredpottier/kbgraph/internal/model"
)

// NewProvider creates an embedding provider based on configuration. A nil
// provider with a nil error means embeddings are disabled and callers use
// lexical matching only.
func NewProvider(cfg model.EmbeddingConfig, c cache.Cache) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		provider, err := NewOpenAIProvider(cfg)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return provider, nil
		}
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		return NewCachedProvider(provider, c, ttl), nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai)", cfg.Provider)
	}
}
