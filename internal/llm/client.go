// Package llm provides text-completion clients for the providers the
// semantic matcher can run against. Providers are interchangeable
// behind the Client interface and selected by configuration.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is a minimal text-completion capability.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for completion clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	RateLimit   int
}

// NewClient creates a completion client for the configured provider,
// wrapped with a token-bucket rate limiter. Callers should Close the
// returned client to stop the limiter's refill loop.
func NewClient(cfg Config) (*LimitedClient, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "groq", "":
		client, err = newGroqClient(cfg)
	case "ollama":
		client, err = newOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &LimitedClient{
		client:  client,
		limiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// LimitedClient applies rate limiting in front of a provider client.
type LimitedClient struct {
	client  Client
	limiter *rateLimiter
}

// Complete blocks for a rate-limit token, then delegates to the
// underlying provider.
func (c *LimitedClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}
	return c.client.Complete(ctx, prompt)
}

// Close stops the rate limiter's background goroutine.
func (c *LimitedClient) Close() error {
	c.limiter.Close()
	return nil
}
