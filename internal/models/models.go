// Package models defines the core data structures for Stride.
//
// It includes the program state, week themes, and the transient suggestion
// types produced by generation, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// GenerationKind identifies what kind of content a generation request produces.
type GenerationKind string

const (
	// KindGoals generates weekly goal suggestions.
	KindGoals GenerationKind = "goals"
	// KindTasks generates task breakdowns for a single goal.
	KindTasks GenerationKind = "tasks"
	// KindReflection analyzes a submitted weekly reflection.
	KindReflection GenerationKind = "reflection"
)

// IsValidGenerationKind checks if the given generation kind is supported.
func IsValidGenerationKind(k GenerationKind) bool {
	switch k {
	case KindGoals, KindTasks, KindReflection:
		return true
	default:
		return false
	}
}

// Program constants.
const (
	// FirstWeek is the first themed week of the program.
	FirstWeek = 1
	// FinalWeek is the last themed week of the program.
	FinalWeek = 5
	// DaysPerWeek is the length of one program week in days.
	DaysPerWeek = 7
)

// Error variables for better error handling and testability
var (
	ErrInvalidWeek           = errors.New("week must be between 1 and 5")
	ErrProgramNotStarted     = errors.New("program has not been started")
	ErrProgramComplete       = errors.New("program is already complete")
	ErrProgramAlreadyStarted = errors.New("program has already been started")
	ErrGoalNotFound          = errors.New("goal not found")
	ErrReflectionNotFound    = errors.New("reflection not found")
	ErrEmptyUserID           = errors.New("user ID cannot be empty")
)

// WeekTheme describes the fixed subject of one program week. Themes are
// defined once at process start and never change.
type WeekTheme struct {
	Week              int      `json:"week"`
	Title             string   `json:"title"`
	Focus             string   `json:"focus"`
	GoalGuidance      string   `json:"goal_guidance"`
	TaskGuidance      string   `json:"task_guidance"`
	ReflectionPrompts []string `json:"reflection_prompts"`
}

// ProgramState tracks where a user is in the 5-week program.
//
// Invariants: ProgramStartDate is set iff ProgramWeek >= 1; ProgramWeek is
// monotonically non-decreasing and capped at FinalWeek.
type ProgramState struct {
	UserID           string     `json:"user_id"`
	ProgramWeek      int        `json:"program_week"`
	ProgramStartDate *time.Time `json:"program_start_date,omitempty"`
	Purpose          string     `json:"purpose,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Started reports whether the user has started the program.
func (s ProgramState) Started() bool {
	return s.ProgramWeek >= FirstWeek && s.ProgramStartDate != nil
}

// GoalCategory classifies a goal suggestion.
type GoalCategory string

const (
	CategoryPersonal     GoalCategory = "personal"
	CategoryProfessional GoalCategory = "professional"
	CategoryHealth       GoalCategory = "health"
	CategoryLearning     GoalCategory = "learning"
)

// IsValidGoalCategory checks if the given category is one of the fixed values.
func IsValidGoalCategory(c GoalCategory) bool {
	switch c {
	case CategoryPersonal, CategoryProfessional, CategoryHealth, CategoryLearning:
		return true
	default:
		return false
	}
}

// NormalizeGoalCategory coerces unrecognized categories to CategoryPersonal
// instead of rejecting the suggestion that carries them.
func NormalizeGoalCategory(c GoalCategory) GoalCategory {
	if IsValidGoalCategory(c) {
		return c
	}
	return CategoryPersonal
}

// GoalSuggestion is a transient candidate goal produced by generation. It has
// no identity; it becomes a persisted Goal once accepted.
type GoalSuggestion struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    GoalCategory `json:"category"`
	Reasoning   string       `json:"reasoning"`
	WeekNumber  int          `json:"weekNumber"`
}

// TaskSuggestion is a transient candidate task scoped to one parent goal.
type TaskSuggestion struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	RecommendedSchedule string `json:"recommendedSchedule"`
	EstimatedTime       string `json:"estimatedTime"`
	Reasoning           string `json:"reasoning"`
}

// ReflectionAnalysis holds the insights generated from a weekly reflection.
// It is consumed for display and stored alongside the reflection record.
type ReflectionAnalysis struct {
	Insights        []string `json:"insights"`
	Patterns        []string `json:"patterns"`
	Recommendations []string `json:"recommendations"`
	NextWeekFocus   string   `json:"nextWeekFocus"`
}

// Goal is a persisted goal record, created when a suggestion is accepted.
type Goal struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    GoalCategory `json:"category"`
	Reasoning   string       `json:"reasoning,omitempty"`
	WeekNumber  int          `json:"week_number"`
	Source      string       `json:"source,omitempty"` // provider name or "static"
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Task is a persisted task record scoped to one goal.
type Task struct {
	ID                  string    `json:"id"`
	GoalID              string    `json:"goal_id"`
	UserID              string    `json:"user_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	RecommendedSchedule string    `json:"recommended_schedule,omitempty"`
	EstimatedTime       string    `json:"estimated_time,omitempty"`
	Reasoning           string    `json:"reasoning,omitempty"`
	Done                bool      `json:"done"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// AnalysisStatus tracks the lifecycle of a reflection's background analysis.
type AnalysisStatus string

const (
	AnalysisPending AnalysisStatus = "pending"
	AnalysisDone    AnalysisStatus = "done"
	AnalysisFailed  AnalysisStatus = "failed"
)

// Reflection is a persisted weekly reflection. The analysis fields are filled
// in by a background job after submission.
type Reflection struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	WeekNumber     int            `json:"week_number"`
	Wins           string         `json:"wins"`
	Lessons        string         `json:"lessons"`
	NextSteps      string         `json:"next_steps"`
	AnalysisJSON   string         `json:"analysis_json,omitempty"`
	AnalysisStatus AnalysisStatus `json:"analysis_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
