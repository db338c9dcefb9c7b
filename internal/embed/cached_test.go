package embed

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/fredpottier/kbgraph/internal/cache"
)

type countingProvider struct {
	calls int
	fail  bool
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Available(context.Context) bool { return true }

func (p *countingProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.calls++
	if p.fail {
		return nil, errors.New("provider down")
	}
	return []float32{float32(len(text)), 0.5, -1.25}, nil
}

func TestCachedProvider_SecondCallHitsCache(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	first, err := p.Embed(ctx, "uptime SLA is 99.5 percent")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := p.Embed(ctx, "uptime SLA is 99.5 percent")
	if err != nil {
		t.Fatalf("Embed (cached): %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner provider called %d times, want 1", inner.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached vector %v differs from original %v", second, first)
	}
}

func TestCachedProvider_DistinctTextsMiss(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	if _, err := p.Embed(ctx, "first passage"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := p.Embed(ctx, "second passage"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner provider called %d times, want 2", inner.calls)
	}
}

func TestCachedProvider_ErrorsAreNotCached(t *testing.T) {
	inner := &countingProvider{fail: true}
	p := NewCachedProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	if _, err := p.Embed(ctx, "text"); err == nil {
		t.Fatal("expected provider error")
	}

	inner.fail = false
	vector, err := p.Embed(ctx, "text")
	if err != nil {
		t.Fatalf("Embed after recovery: %v", err)
	}
	if len(vector) == 0 {
		t.Error("recovered call returned no vector")
	}
	if inner.calls != 2 {
		t.Errorf("inner provider called %d times, want 2", inner.calls)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{0, 1.5, -2.25, 3.125}
	decoded := decodeVector(encodeVector(original))
	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip = %v, want %v", decoded, original)
	}

	if decodeVector([]byte{1, 2, 3}) != nil {
		t.Error("truncated payload decoded to a vector")
	}
	if decodeVector(nil) != nil {
		t.Error("empty payload decoded to a vector")
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched lengths", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}
