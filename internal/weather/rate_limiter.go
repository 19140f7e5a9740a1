package weather

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with rate limiting
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
	name     string
}

// NewRateLimitedProvider creates a new rate limited provider.
// rps is the maximum lookups per second (can be fractional), burst the maximum burst size.
func NewRateLimitedProvider(provider Provider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		name:     fmt.Sprintf("%s [Rate Limited]", provider.Name()),
	}
}

// Current fetches a snapshot, respecting the rate limit
func (r *RateLimitedProvider) Current(ctx context.Context, location string) (*Snapshot, error) {
	// Wait for rate limiter permission or context cancellation
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	return r.provider.Current(ctx, location)
}

// Name returns the provider name
func (r *RateLimitedProvider) Name() string {
	return r.name
}

var _ Provider = (*RateLimitedProvider)(nil)
