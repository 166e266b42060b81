// Package coach implements the caller-facing service layer: program
// lifecycle, goal and task acceptance, reflection submission with background
// analysis, and reflection reminders.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stridecoach/stride/internal/generation"
	"github.com/stridecoach/stride/internal/messaging"
	"github.com/stridecoach/stride/internal/models"
	"github.com/stridecoach/stride/internal/program"
	"github.com/stridecoach/stride/internal/store"
	"github.com/stridecoach/stride/internal/util"
)

// JobKindReflectionAnalysis is the durable job kind for reflection analysis.
const JobKindReflectionAnalysis = "reflection_analysis"

// WeekStatus describes where a user currently stands in the program.
type WeekStatus struct {
	Week            int              `json:"week"`
	Theme           models.WeekTheme `json:"theme"`
	ReflectionDue   bool             `json:"reflectionDue"`
	ProgramComplete bool             `json:"programComplete"`
}

// Service wires the store, the generation router and the reminder sender
// together. All dependencies are injected; nothing here reaches for globals.
type Service struct {
	store  store.Store
	router *generation.Router
	sender messaging.Sender
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the service's time source. Used in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the coaching service.
func NewService(st store.Store, router *generation.Router, sender messaging.Sender, opts ...ServiceOption) *Service {
	s := &Service{
		store:  st,
		router: router,
		sender: sender,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartProgram creates week-1 program state for a user.
func (s *Service) StartProgram(ctx context.Context, userID, purpose, phone string) (*models.ProgramState, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}

	existing, err := s.store.GetProgramState(userID)
	if err != nil {
		return nil, fmt.Errorf("load program state: %w", err)
	}
	if existing != nil && existing.Started() {
		return nil, models.ErrProgramAlreadyStarted
	}

	now := s.now()
	start := now
	state := models.ProgramState{
		UserID:           userID,
		ProgramWeek:      models.FirstWeek,
		ProgramStartDate: &start,
		Purpose:          purpose,
		Phone:            phone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if existing != nil {
		state.CreatedAt = existing.CreatedAt
	}
	if err := s.store.SaveProgramState(state); err != nil {
		return nil, fmt.Errorf("save program state: %w", err)
	}

	slog.Info("Service.StartProgram", "userID", userID, "week", state.ProgramWeek)
	return &state, nil
}

// loadStartedState returns the user's state, reconciling the stored week with
// elapsed time and persisting any drift.
func (s *Service) loadStartedState(userID string) (*models.ProgramState, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	state, err := s.store.GetProgramState(userID)
	if err != nil {
		return nil, fmt.Errorf("load program state: %w", err)
	}
	if state == nil || !state.Started() {
		return nil, models.ErrProgramNotStarted
	}

	if program.Reconcile(state, s.now()) {
		state.UpdatedAt = s.now()
		if err := s.store.SaveProgramState(*state); err != nil {
			return nil, fmt.Errorf("persist reconciled week: %w", err)
		}
		slog.Debug("Service.loadStartedState: week reconciled", "userID", userID, "week", state.ProgramWeek)
	}
	return state, nil
}

// CurrentWeek reports the user's week, theme and reflection window.
func (s *Service) CurrentWeek(ctx context.Context, userID string) (*WeekStatus, error) {
	state, err := s.loadStartedState(userID)
	if err != nil {
		return nil, err
	}

	theme, _ := program.ThemeFor(state.ProgramWeek)
	now := s.now()
	return &WeekStatus{
		Week:            state.ProgramWeek,
		Theme:           theme,
		ReflectionDue:   program.IsReflectionDue(*state.ProgramStartDate, now),
		ProgramComplete: program.IsComplete(*state.ProgramStartDate, now),
	}, nil
}

// AdvanceWeek manually moves the user one week forward. Advancing past the
// final week returns ErrProgramComplete and leaves the state untouched.
func (s *Service) AdvanceWeek(ctx context.Context, userID string) (*models.ProgramState, error) {
	state, err := s.loadStartedState(userID)
	if err != nil {
		return nil, err
	}

	if err := program.Advance(state); err != nil {
		return nil, err
	}
	state.UpdatedAt = s.now()
	if err := s.store.SaveProgramState(*state); err != nil {
		return nil, fmt.Errorf("save program state: %w", err)
	}

	slog.Info("Service.AdvanceWeek", "userID", userID, "week", state.ProgramWeek)
	return state, nil
}

// GenerateGoals produces goal suggestions for the user's current week.
func (s *Service) GenerateGoals(ctx context.Context, userID string) (*generation.GoalGeneration, error) {
	state, err := s.loadStartedState(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListGoalsForWeek(userID, state.ProgramWeek)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	titles := make([]string, 0, len(existing))
	for _, g := range existing {
		titles = append(titles, g.Title)
	}

	return s.router.GenerateGoals(ctx, state.ProgramWeek, generation.GoalContext{
		Purpose:       state.Purpose,
		ExistingGoals: titles,
	})
}

// AcceptGoal persists one goal suggestion as the user's goal.
func (s *Service) AcceptGoal(ctx context.Context, userID string, suggestion models.GoalSuggestion, source string) (*models.Goal, error) {
	state, err := s.loadStartedState(userID)
	if err != nil {
		return nil, err
	}

	week := suggestion.WeekNumber
	if week == 0 {
		week = state.ProgramWeek
	}
	if week < models.FirstWeek || week > models.FinalWeek {
		return nil, models.ErrInvalidWeek
	}

	now := s.now()
	goal := models.Goal{
		ID:          util.GenerateGoalID(),
		UserID:      userID,
		Title:       suggestion.Title,
		Description: suggestion.Description,
		Category:    models.NormalizeGoalCategory(suggestion.Category),
		Reasoning:   suggestion.Reasoning,
		WeekNumber:  week,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if goal.Title == "" {
		return nil, fmt.Errorf("goal title must not be empty")
	}
	if err := s.store.AddGoal(goal); err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	slog.Info("Service.AcceptGoal", "userID", userID, "goalID", goal.ID, "week", goal.WeekNumber)
	return &goal, nil
}

// GenerateTasks breaks one accepted goal into task suggestions. The week used
// is the goal's week, not the user's current one, so late decomposition still
// matches the theme the goal was created under.
func (s *Service) GenerateTasks(ctx context.Context, userID, goalID string) (*generation.TaskGeneration, error) {
	state, err := s.loadStartedState(userID)
	if err != nil {
		return nil, err
	}

	goal, err := s.store.GetGoal(goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if goal == nil || goal.UserID != userID {
		return nil, models.ErrGoalNotFound
	}

	return s.router.GenerateTasks(ctx, goal.WeekNumber, generation.TaskContext{
		Purpose:         state.Purpose,
		GoalTitle:       goal.Title,
		GoalDescription: goal.Description,
	})
}

// AcceptTask persists one task suggestion under a goal.
func (s *Service) AcceptTask(ctx context.Context, userID, goalID string, suggestion models.TaskSuggestion) (*models.Task, error) {
	if _, err := s.loadStartedState(userID); err != nil {
		return nil, err
	}

	goal, err := s.store.GetGoal(goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if goal == nil || goal.UserID != userID {
		return nil, models.ErrGoalNotFound
	}
	if suggestion.Title == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}

	now := s.now()
	task := models.Task{
		ID:                  util.GenerateTaskID(),
		GoalID:              goal.ID,
		UserID:              userID,
		Title:               suggestion.Title,
		Description:         suggestion.Description,
		RecommendedSchedule: suggestion.RecommendedSchedule,
		EstimatedTime:       suggestion.EstimatedTime,
		Reasoning:           suggestion.Reasoning,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.AddTask(task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	slog.Info("Service.AcceptTask", "userID", userID, "goalID", goal.ID, "taskID", task.ID)
	return &task, nil
}

// reflectionJobPayload is the payload of a reflection_analysis job.
type reflectionJobPayload struct {
	ReflectionID string `json:"reflectionId"`
	UserID       string `json:"userId"`
	Week         int    `json:"week"`
}

// SubmitReflection persists the reflection immediately with analysis status
// pending and enqueues a durable analysis job. It never waits for providers.
func (s *Service) SubmitReflection(ctx context.Context, userID, wins, lessons, nextSteps string) (*models.Reflection, error) {
	state, err := s.loadStartedState(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reflection := models.Reflection{
		ID:             util.GenerateReflectionID(),
		UserID:         userID,
		WeekNumber:     state.ProgramWeek,
		Wins:           wins,
		Lessons:        lessons,
		NextSteps:      nextSteps,
		AnalysisStatus: models.AnalysisPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.AddReflection(reflection); err != nil {
		return nil, fmt.Errorf("save reflection: %w", err)
	}

	payload, err := json.Marshal(reflectionJobPayload{
		ReflectionID: reflection.ID,
		UserID:       userID,
		Week:         reflection.WeekNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis payload: %w", err)
	}
	jobID, err := s.store.EnqueueJob(JobKindReflectionAnalysis, now, string(payload), reflection.ID)
	if err != nil {
		// The reflection itself is saved; analysis just never starts.
		slog.Error("Service.SubmitReflection: enqueue analysis failed", "reflectionID", reflection.ID, "error", err)
		return nil, fmt.Errorf("enqueue analysis: %w", err)
	}

	slog.Info("Service.SubmitReflection", "userID", userID, "reflectionID", reflection.ID, "week", reflection.WeekNumber, "jobID", jobID)
	return &reflection, nil
}

// GetReflection returns the user's reflection for one week, analysis included
// once the background job has finished.
func (s *Service) GetReflection(ctx context.Context, userID string, week int) (*models.Reflection, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	if week < models.FirstWeek || week > models.FinalWeek {
		return nil, models.ErrInvalidWeek
	}
	reflection, err := s.store.GetReflectionForWeek(userID, week)
	if err != nil {
		return nil, fmt.Errorf("load reflection: %w", err)
	}
	if reflection == nil {
		return nil, models.ErrReflectionNotFound
	}
	return reflection, nil
}

// ListReflections returns all reflections for a user, oldest week first.
func (s *Service) ListReflections(ctx context.Context, userID string) ([]models.Reflection, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	reflections, err := s.store.ListReflections(userID)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	return reflections, nil
}

// RegisterJobHandlers registers the service's durable job handlers.
func (s *Service) RegisterJobHandlers(runner *store.JobRunner) {
	runner.RegisterHandler(JobKindReflectionAnalysis, s.runReflectionAnalysis)
}

// runReflectionAnalysis is the reflection_analysis job handler. A returned
// error makes the runner retry with backoff; the reflection's status tracks
// the latest outcome so callers can observe progress.
func (s *Service) runReflectionAnalysis(ctx context.Context, payload string) error {
	var p reflectionJobPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("decode analysis payload: %w", err)
	}

	reflection, err := s.store.GetReflection(p.ReflectionID)
	if err != nil {
		return fmt.Errorf("load reflection %s: %w", p.ReflectionID, err)
	}
	if reflection == nil {
		// Nothing to analyze; retrying will not help.
		slog.Warn("Service.runReflectionAnalysis: reflection gone", "reflectionID", p.ReflectionID)
		return nil
	}
	if reflection.AnalysisStatus == models.AnalysisDone {
		return nil
	}

	var purpose string
	if state, err := s.store.GetProgramState(reflection.UserID); err == nil && state != nil {
		purpose = state.Purpose
	}

	result, err := s.router.AnalyzeReflection(ctx, reflection.WeekNumber, generation.ReflectionContext{
		Purpose:   purpose,
		Wins:      reflection.Wins,
		Lessons:   reflection.Lessons,
		NextSteps: reflection.NextSteps,
	})
	if err != nil {
		s.markAnalysisFailed(reflection.ID)
		return fmt.Errorf("analyze reflection %s: %w", reflection.ID, err)
	}

	analysisJSON, err := json.Marshal(result.Analysis)
	if err != nil {
		s.markAnalysisFailed(reflection.ID)
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := s.store.UpdateReflectionAnalysis(reflection.ID, string(analysisJSON), models.AnalysisDone); err != nil {
		return fmt.Errorf("store analysis: %w", err)
	}

	slog.Info("Service.runReflectionAnalysis completed", "reflectionID", reflection.ID, "source", result.Source)
	return nil
}

func (s *Service) markAnalysisFailed(reflectionID string) {
	if err := s.store.UpdateReflectionAnalysis(reflectionID, "", models.AnalysisFailed); err != nil {
		slog.Error("Service.markAnalysisFailed: update failed", "reflectionID", reflectionID, "error", err)
	}
}

// SweepReflectionReminders sends a reminder to every user whose reflection
// window is open and who has not submitted this week's reflection yet.
// Returns the number of reminders sent; delivery failures are logged and do
// not stop the sweep.
func (s *Service) SweepReflectionReminders(ctx context.Context) (int, error) {
	states, err := s.store.ListProgramStates()
	if err != nil {
		return 0, fmt.Errorf("list program states: %w", err)
	}

	now := s.now()
	sent := 0
	for _, state := range states {
		if !state.Started() || state.Phone == "" {
			continue
		}
		if !program.IsReflectionDue(*state.ProgramStartDate, now) {
			continue
		}

		week := program.CurrentWeek(*state.ProgramStartDate, now)
		existing, err := s.store.GetReflectionForWeek(state.UserID, week)
		if err != nil {
			slog.Error("Service.SweepReflectionReminders: lookup failed", "userID", state.UserID, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		theme, _ := program.ThemeFor(week)
		body := fmt.Sprintf("Your week %d (%s) reflection window is open. A few minutes now keeps your momentum visible.", week, theme.Title)
		if err := s.sender.SendReminder(ctx, state.Phone, body); err != nil {
			slog.Error("Service.SweepReflectionReminders: send failed", "userID", state.UserID, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		slog.Info("Service.SweepReflectionReminders", "sent", sent)
	}
	return sent, nil
}
