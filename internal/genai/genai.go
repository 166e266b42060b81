// Package genai provides the generative-text provider clients used by the
// generation pipeline.
//
// Each provider wraps one external service behind the Provider interface.
// Clients are constructed once at process start from credentials and passed
// in explicitly; a missing credential means the provider is simply not
// constructed, which the fallback chain treats as one fewer link, not an
// error.
package genai

import "context"

// Request describes a single text-generation call.
type Request struct {
	System      string  // system / instruction prompt
	User        string  // user prompt
	Temperature float64 // sampling temperature
	MaxTokens   int64   // output size bound
	JSONOnly    bool    // hint the provider to respond with pure JSON
}

// Provider is a generative-text service invoked to produce goal, task, or
// reflection content. Implementations must be safe for concurrent use.
type Provider interface {
	// Name identifies the provider in logs and result metadata.
	Name() string

	// Generate performs one bounded generation attempt and returns the raw
	// response text. Retries across providers are the fallback chain's job,
	// not the provider's.
	Generate(ctx context.Context, req Request) (string, error)
}

// Opts holds configuration options for provider clients.
type Opts struct {
	APIKey string
	Model  string
}

// Option defines a configuration option for a provider client.
type Option func(*Opts)

// WithAPIKey overrides the credential read from the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the provider's default model identifier.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}
