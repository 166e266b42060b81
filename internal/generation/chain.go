package generation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/stridecoach/stride/internal/genai"
	"github.com/stridecoach/stride/internal/models"
)

// SourceStatic marks results served from the static fallback tables rather
// than a provider.
const SourceStatic = "static"

// DefaultProviderTimeout bounds a single provider attempt so a hung provider
// cannot stall the chain.
const DefaultProviderTimeout = 30 * time.Second

// Policy is the ordered provider list attempted per generation kind. The
// ordering is configuration, not a fixed global order; different kinds may
// prefer different providers.
type Policy map[models.GenerationKind][]genai.Provider

// DefaultOrder is the per-kind provider ordering used when none is
// configured.
var DefaultOrder = map[models.GenerationKind][]string{
	models.KindGoals:      {genai.ProviderNameOpenAI, genai.ProviderNameGemini},
	models.KindTasks:      {genai.ProviderNameGemini, genai.ProviderNameOpenAI},
	models.KindReflection: {genai.ProviderNameOpenAI, genai.ProviderNameGemini},
}

// BuildPolicy assembles a Policy from the available provider clients and
// per-kind ordering by name. Names without a configured client are dropped
// silently; an unconfigured provider is one fewer fallback link, not an
// error. An empty order for a kind falls back to DefaultOrder.
func BuildPolicy(available map[string]genai.Provider, orders map[models.GenerationKind][]string) Policy {
	policy := make(Policy, len(DefaultOrder))
	for kind, defaultNames := range DefaultOrder {
		names := defaultNames
		if custom, ok := orders[kind]; ok && len(custom) > 0 {
			names = custom
		}
		var chain []genai.Provider
		for _, name := range names {
			if p, ok := available[strings.TrimSpace(name)]; ok && p != nil {
				chain = append(chain, p)
			}
		}
		policy[kind] = chain
		slog.Debug("generation.BuildPolicy: chain assembled", "kind", kind, "providers", len(chain))
	}
	return policy
}

// Per-kind request parameters.
var kindParams = map[models.GenerationKind]struct {
	temperature float64
	maxTokens   int64
}{
	models.KindGoals:      {temperature: 0.7, maxTokens: 1024},
	models.KindTasks:      {temperature: 0.5, maxTokens: 1024},
	models.KindReflection: {temperature: 0.6, maxTokens: 1536},
}

// Chain attempts an ordered list of providers per kind until one returns a
// parseable result, degrading to static content when all fail. Generate
// methods never return an error for a well-formed request; coaching content
// is supplementary, and generic suggestions beat a broken flow.
type Chain struct {
	policy  Policy
	timeout time.Duration
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithProviderTimeout overrides the per-provider attempt timeout.
func WithProviderTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChain creates a fallback chain over the given provider policy.
func NewChain(policy Policy, opts ...ChainOption) *Chain {
	c := &Chain{policy: policy, timeout: DefaultProviderTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Goals runs the chain for goal generation. Suggestions are stamped with the
// requested week. The second return value names the serving provider, or
// SourceStatic.
func (c *Chain) Goals(ctx context.Context, week int, userPrompt string) ([]models.GoalSuggestion, string) {
	goals, source := runChain(ctx, c, models.KindGoals, userPrompt, ParseGoals, func() []models.GoalSuggestion {
		return FallbackGoals(week)
	})
	for i := range goals {
		goals[i].WeekNumber = week
	}
	return goals, source
}

// Tasks runs the chain for task generation.
func (c *Chain) Tasks(ctx context.Context, week int, userPrompt string) ([]models.TaskSuggestion, string) {
	return runChain(ctx, c, models.KindTasks, userPrompt, ParseTasks, func() []models.TaskSuggestion {
		return FallbackTasks(week)
	})
}

// Reflection runs the chain for reflection analysis.
func (c *Chain) Reflection(ctx context.Context, week int, userPrompt string) (models.ReflectionAnalysis, string) {
	return runChain(ctx, c, models.KindReflection, userPrompt, ParseReflection, func() models.ReflectionAnalysis {
		return FallbackReflection(week)
	})
}

// runChain walks the provider list for kind: one bounded attempt per
// provider, short-circuiting on the first response that parses, and the
// static fallback once the list is exhausted. Every attempt is logged.
func runChain[T any](ctx context.Context, c *Chain, kind models.GenerationKind, userPrompt string, parse func(string) (T, error), fallback func() T) (T, string) {
	params := kindParams[kind]
	req := genai.Request{
		System:      SystemPromptFor(kind),
		User:        userPrompt,
		Temperature: params.temperature,
		MaxTokens:   params.maxTokens,
		JSONOnly:    true,
	}

	for _, provider := range c.policy[kind] {
		if provider == nil {
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		raw, err := provider.Generate(attemptCtx, req)
		cancel()
		if err != nil {
			slog.Warn("Chain: provider attempt failed", "provider", provider.Name(), "kind", kind, "error", err)
			continue
		}

		parsed, err := parse(raw)
		if err != nil {
			slog.Warn("Chain: provider output unparseable", "provider", provider.Name(), "kind", kind, "error", err)
			continue
		}

		slog.Info("Chain: provider succeeded", "provider", provider.Name(), "kind", kind)
		return parsed, provider.Name()
	}

	slog.Info("Chain: all providers exhausted, serving static fallback", "kind", kind)
	return fallback(), SourceStatic
}
