package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps an LLM with a token-bucket limiter so concurrent
// section generation respects the provider's per-caller rate limits.
type RateLimited struct {
	inner   LLM
	limiter *rate.Limiter
}

// NewRateLimited wraps inner, allowing rps requests per second with the
// given burst. Non-positive rps disables limiting.
func NewRateLimited(inner LLM, rps float64, burst int) *RateLimited {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &RateLimited{inner: inner, limiter: limiter}
}

// Complete waits for limiter capacity, then delegates.
func (r *RateLimited) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return r.inner.Complete(ctx, prompt, opts)
}
