package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stridecoach/stride/internal/genai"
	"github.com/stridecoach/stride/internal/models"
)

// fakeProvider is a scriptable Provider that records call counts.
type fakeProvider struct {
	name     string
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, req genai.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func policyFor(kind models.GenerationKind, providers ...genai.Provider) Policy {
	return Policy{kind: providers}
}

const goalsJSON = `{"goals": [{"title": "Ship the draft", "description": "finish it", "category": "professional", "reasoning": "momentum"}]}`

func TestChainShortCircuitsOnFirstSuccess(t *testing.T) {
	first := &fakeProvider{name: "first", response: goalsJSON}
	second := &fakeProvider{name: "second", response: goalsJSON}
	chain := NewChain(policyFor(models.KindGoals, first, second))

	goals, source := chain.Goals(context.Background(), 2, "prompt")
	if source != "first" {
		t.Fatalf("source = %q, want first", source)
	}
	if first.calls != 1 {
		t.Errorf("first provider calls = %d, want 1", first.calls)
	}
	if second.calls != 0 {
		t.Errorf("second provider must never be invoked after a success, calls = %d", second.calls)
	}
	if len(goals) != 1 || goals[0].WeekNumber != 2 {
		t.Errorf("unexpected goals: %+v", goals)
	}
}

func TestChainAdvancesPastFailures(t *testing.T) {
	failing := &fakeProvider{name: "failing", err: errors.New("network down")}
	unparseable := &fakeProvider{name: "unparseable", response: "sorry, I cannot help with that"}
	working := &fakeProvider{name: "working", response: goalsJSON}
	chain := NewChain(policyFor(models.KindGoals, failing, unparseable, working))

	_, source := chain.Goals(context.Background(), 1, "prompt")
	if source != "working" {
		t.Fatalf("source = %q, want working", source)
	}
	if failing.calls != 1 || unparseable.calls != 1 || working.calls != 1 {
		t.Errorf("each provider should get exactly one bounded attempt: %d %d %d",
			failing.calls, unparseable.calls, working.calls)
	}
}

func TestChainStaticFallbackWhenAllFail(t *testing.T) {
	a := &fakeProvider{name: "a", err: errors.New("boom")}
	b := &fakeProvider{name: "b", response: "not json"}
	chain := NewChain(policyFor(models.KindGoals, a, b))

	goals, source := chain.Goals(context.Background(), 2, "prompt")
	if source != SourceStatic {
		t.Fatalf("source = %q, want %q", source, SourceStatic)
	}
	if len(goals) != 3 {
		t.Fatalf("week 2 static fallback should have exactly 3 goals, got %d", len(goals))
	}
	for _, g := range goals {
		if g.WeekNumber != 2 {
			t.Errorf("goal %q weekNumber = %d, want 2", g.Title, g.WeekNumber)
		}
		if g.Category != models.CategoryPersonal && g.Category != models.CategoryProfessional {
			t.Errorf("goal %q category = %q, want personal or professional", g.Title, g.Category)
		}
		if g.Title == "" || g.Description == "" {
			t.Errorf("fallback goal has empty fields: %+v", g)
		}
	}
}

func TestChainNoProvidersConfigured(t *testing.T) {
	// Every provider unconfigured: skipped without counting as failures,
	// straight to static content, never an error.
	chain := NewChain(Policy{})

	goals, source := chain.Goals(context.Background(), 3, "prompt")
	if source != SourceStatic || len(goals) == 0 {
		t.Fatalf("expected non-empty static goals, got %d from %q", len(goals), source)
	}

	tasks, source := chain.Tasks(context.Background(), 1, "prompt")
	if source != SourceStatic || len(tasks) == 0 {
		t.Fatalf("expected non-empty static tasks, got %d from %q", len(tasks), source)
	}

	analysis, source := chain.Reflection(context.Background(), 5, "prompt")
	if source != SourceStatic || len(analysis.Insights) == 0 || analysis.NextWeekFocus == "" {
		t.Fatalf("expected non-empty static analysis, got %+v from %q", analysis, source)
	}
}

func TestChainReflection(t *testing.T) {
	p := &fakeProvider{name: "p", response: `{"insights": ["good week"], "patterns": [], "recommendations": ["keep going"], "nextWeekFocus": "structure"}`}
	chain := NewChain(policyFor(models.KindReflection, p))

	analysis, source := chain.Reflection(context.Background(), 3, "prompt")
	if source != "p" {
		t.Fatalf("source = %q", source)
	}
	if len(analysis.Insights) != 1 || analysis.NextWeekFocus != "structure" {
		t.Errorf("unexpected analysis: %+v", analysis)
	}
}

func TestChainRequestParameters(t *testing.T) {
	var captured genai.Request
	p := &capturingProvider{response: goalsJSON, captured: &captured}
	chain := NewChain(policyFor(models.KindGoals, p))

	chain.Goals(context.Background(), 1, "the prompt")
	if captured.User != "the prompt" {
		t.Errorf("user prompt = %q", captured.User)
	}
	if captured.System == "" {
		t.Error("system prompt should be set")
	}
	if !captured.JSONOnly {
		t.Error("JSONOnly hint should be set")
	}
	if captured.MaxTokens <= 0 {
		t.Error("max tokens should be bounded")
	}
}

type capturingProvider struct {
	response string
	captured *genai.Request
}

func (c *capturingProvider) Name() string { return "capturing" }

func (c *capturingProvider) Generate(ctx context.Context, req genai.Request) (string, error) {
	*c.captured = req
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("provider attempt must carry a deadline")
	}
	return c.response, nil
}

func TestBuildPolicy(t *testing.T) {
	openaiP := &fakeProvider{name: genai.ProviderNameOpenAI}
	available := map[string]genai.Provider{genai.ProviderNameOpenAI: openaiP}

	policy := BuildPolicy(available, nil)

	// Unconfigured gemini is dropped from every chain.
	for kind, chain := range policy {
		for _, p := range chain {
			if p.Name() != genai.ProviderNameOpenAI {
				t.Errorf("kind %s: unexpected provider %q", kind, p.Name())
			}
		}
	}
	if len(policy[models.KindGoals]) != 1 {
		t.Errorf("goals chain length = %d, want 1", len(policy[models.KindGoals]))
	}

	// Custom ordering is honored.
	custom := BuildPolicy(available, map[models.GenerationKind][]string{
		models.KindGoals: {genai.ProviderNameGemini, genai.ProviderNameOpenAI},
	})
	if len(custom[models.KindGoals]) != 1 || custom[models.KindGoals][0].Name() != genai.ProviderNameOpenAI {
		t.Errorf("custom goals chain = %v", custom[models.KindGoals])
	}
}

func TestChainTimeoutOption(t *testing.T) {
	c := NewChain(Policy{}, WithProviderTimeout(5*time.Second))
	if c.timeout != 5*time.Second {
		t.Errorf("timeout = %v", c.timeout)
	}
	c = NewChain(Policy{}, WithProviderTimeout(0))
	if c.timeout != DefaultProviderTimeout {
		t.Errorf("non-positive timeout should keep default, got %v", c.timeout)
	}
}
