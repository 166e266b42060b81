package generation

import (
	"context"
	"log/slog"

	"github.com/stridecoach/stride/internal/models"
	"github.com/stridecoach/stride/internal/program"
)

// GoalContext is the user context for goal generation.
type GoalContext struct {
	Purpose       string
	ExistingGoals []string
}

// TaskContext is the user context for breaking one goal into tasks.
type TaskContext struct {
	Purpose         string
	GoalTitle       string
	GoalDescription string
}

// ReflectionContext is the user context for reflection analysis.
type ReflectionContext struct {
	Purpose   string
	Wins      string
	Lessons   string
	NextSteps string
}

// GoalGeneration is the result of one goal generation request.
type GoalGeneration struct {
	Week        int                     `json:"week"`
	Theme       string                  `json:"theme"`
	Source      string                  `json:"source"`
	Suggestions []models.GoalSuggestion `json:"suggestions"`
}

// TaskGeneration is the result of one task generation request.
type TaskGeneration struct {
	Week        int                     `json:"week"`
	Theme       string                  `json:"theme"`
	Source      string                  `json:"source"`
	Suggestions []models.TaskSuggestion `json:"suggestions"`
}

// ReflectionGeneration is the result of one reflection analysis request.
type ReflectionGeneration struct {
	Week     int                       `json:"week"`
	Theme    string                    `json:"theme"`
	Source   string                    `json:"source"`
	Analysis models.ReflectionAnalysis `json:"analysis"`
}

// Router dispatches a (kind, week) pair to the matching prompt template and
// the provider fallback chain. It is the single generation entry point used
// by the service layer.
type Router struct {
	chain *Chain
}

// NewRouter creates a Router over the given fallback chain.
func NewRouter(chain *Chain) *Router {
	return &Router{chain: chain}
}

// validWeek guards the one hard failure the generation surface allows: an
// out-of-range week is a caller bug, not an external-service failure.
func validWeek(week int) error {
	if week < models.FirstWeek || week > models.FinalWeek {
		return models.ErrInvalidWeek
	}
	return nil
}

// GenerateGoals produces goal suggestions for a program week.
func (r *Router) GenerateGoals(ctx context.Context, week int, gc GoalContext) (*GoalGeneration, error) {
	if err := validWeek(week); err != nil {
		return nil, err
	}
	theme, _ := program.ThemeFor(week)

	prompt, _ := BuildPrompt(models.KindGoals, week, PromptContext{
		Theme:         theme,
		Purpose:       gc.Purpose,
		ExistingGoals: gc.ExistingGoals,
	})
	suggestions, source := r.chain.Goals(ctx, week, prompt)

	slog.Debug("Router.GenerateGoals completed", "week", week, "source", source, "count", len(suggestions))
	return &GoalGeneration{Week: week, Theme: theme.Title, Source: source, Suggestions: suggestions}, nil
}

// GenerateTasks breaks one goal into task suggestions for a program week.
func (r *Router) GenerateTasks(ctx context.Context, week int, tc TaskContext) (*TaskGeneration, error) {
	if err := validWeek(week); err != nil {
		return nil, err
	}
	theme, _ := program.ThemeFor(week)

	prompt, _ := BuildPrompt(models.KindTasks, week, PromptContext{
		Theme:           theme,
		Purpose:         tc.Purpose,
		GoalTitle:       tc.GoalTitle,
		GoalDescription: tc.GoalDescription,
	})
	suggestions, source := r.chain.Tasks(ctx, week, prompt)

	slog.Debug("Router.GenerateTasks completed", "week", week, "source", source, "count", len(suggestions))
	return &TaskGeneration{Week: week, Theme: theme.Title, Source: source, Suggestions: suggestions}, nil
}

// AnalyzeReflection analyzes a submitted reflection for the user's current
// week. The prompt also carries the next week's theme, or notes program
// completion when the final week is being reflected on.
func (r *Router) AnalyzeReflection(ctx context.Context, week int, rc ReflectionContext) (*ReflectionGeneration, error) {
	if err := validWeek(week); err != nil {
		return nil, err
	}
	theme, _ := program.ThemeFor(week)

	pc := PromptContext{
		Theme:     theme,
		Purpose:   rc.Purpose,
		Wins:      rc.Wins,
		Lessons:   rc.Lessons,
		NextSteps: rc.NextSteps,
	}
	if next, ok := program.ThemeFor(week + 1); ok {
		pc.NextTheme = &next
	}

	prompt, _ := BuildPrompt(models.KindReflection, week, pc)
	analysis, source := r.chain.Reflection(ctx, week, prompt)

	slog.Debug("Router.AnalyzeReflection completed", "week", week, "source", source)
	return &ReflectionGeneration{Week: week, Theme: theme.Title, Source: source, Analysis: analysis}, nil
}
