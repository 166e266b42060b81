package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	googleai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ProviderNameGemini identifies the Gemini provider in chain policies and logs.
const ProviderNameGemini = "gemini"

// DefaultGeminiModel is used when no model override is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient wraps the Google Gemini API as a Provider.
type GeminiClient struct {
	client *googleai.Client
	model  string
}

// NewGeminiClient initializes a Gemini provider. The API key falls back to
// the GEMINI_API_KEY environment variable when not provided via options.
func NewGeminiClient(ctx context.Context, opts ...Option) (*GeminiClient, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	client, err := googleai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	slog.Debug("GeminiClient created", "model", cfg.Model)
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Name implements Provider.
func (c *GeminiClient) Name() string { return ProviderNameGemini }

// Generate implements Provider using a single content generation call. A
// fresh model handle is derived per call so request-specific settings never
// leak across concurrent requests.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := c.client.GenerativeModel(c.model)
	if req.System != "" {
		model.SystemInstruction = &googleai.Content{Parts: []googleai.Part{googleai.Text(req.System)}}
	}
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSONOnly {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, googleai.Text(req.User))
	if err != nil {
		return "", fmt.Errorf("gemini content generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(googleai.Text)
	if !ok {
		return "", fmt.Errorf("gemini returned non-text content")
	}
	return string(text), nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
