package embed

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/fredpottier/kbgraph/internal/cache"
)

// CachedProvider wraps a Provider with a vector cache. Vectors are a pure
// function of (provider, model, text), so the cache compartment is shared
// across tenants by construction.
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps inner with the given cache.
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{inner: inner, cache: c, ttl: ttl}
}

// Name returns the wrapped provider's name.
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// Available reports the wrapped provider's availability.
func (p *CachedProvider) Available(ctx context.Context) bool {
	return p.inner.Available(ctx)
}

// Embed returns a cached vector when present, otherwise delegates and
// stores the result.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("shared", "embedding", p.inner.Name(), text)
	if data, found := p.cache.Get(key); found {
		if vector := decodeVector(data); vector != nil {
			return vector, nil
		}
	}

	vector, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = p.cache.Set(key, encodeVector(vector), p.ttl)
	return vector, nil
}

func encodeVector(v []float32) []byte {
	data := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

func decodeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
