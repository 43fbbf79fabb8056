// Package llm provides the provider-agnostic completion interface the
// pipeline generates text through. It ships an OpenAI-backed implementation
// with transient-error classification, a rate-limited wrapper, and a
// deterministic mock for testing.
package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTransient marks retryable failures: timeouts, rate limits, 5xx.
	ErrTransient = errors.New("transient completion failure")

	// ErrContentPolicy marks refusals; never retried.
	ErrContentPolicy = errors.New("completion refused by content policy")

	ErrInvalidConfig = errors.New("invalid completion configuration")
)

// Options carries per-call sampling parameters.
type Options struct {
	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int

	// Temperature controls randomness
	Temperature float64
}

// LLM is the completion service consumed by the pipeline and the repair
// controller. Implementations must be stateless and safe for concurrent use.
type LLM interface {
	// Complete produces text from a prompt. Failures are classified with
	// ErrTransient or ErrContentPolicy where the cause is known.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Config holds common provider configuration.
type Config struct {
	// Model is the model identifier (e.g., "gpt-4o-mini")
	Model string

	// Temperature is the default sampling temperature
	Temperature float64

	// MaxTokens is the default response limit
	MaxTokens int

	// APIKey authenticates against the provider
	APIKey string
}

// DefaultConfig returns the defaults used for article generation.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   1500,
	}
}

// retryBackoff is the wait before the single transient retry.
var retryBackoff = time.Second

// CompleteWithRetry calls Complete, retrying exactly once with backoff on a
// transient failure. Content-policy refusals are returned immediately.
func CompleteWithRetry(ctx context.Context, l LLM, prompt string, opts Options) (string, error) {
	text, err := l.Complete(ctx, prompt, opts)
	if err == nil || !errors.Is(err, ErrTransient) {
		return text, err
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return l.Complete(ctx, prompt, opts)
}
