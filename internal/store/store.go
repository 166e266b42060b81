// Package store provides storage backends for Stride.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backed stores for persistent deployments. All backends implement
// the same Store interface so the service layer never knows which one it has.
package store

import (
	"github.com/stridecoach/stride/internal/models"
)

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the database connection string. For SQLite this is a file path;
	// for Postgres a connection URL.
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// ProgramStateRepo persists per-user program progression state.
type ProgramStateRepo interface {
	// SaveProgramState inserts or updates the state for state.UserID.
	SaveProgramState(state models.ProgramState) error

	// GetProgramState returns the state for a user, or nil if the user has
	// never been seen.
	GetProgramState(userID string) (*models.ProgramState, error)

	// ListProgramStates returns all known program states.
	ListProgramStates() ([]models.ProgramState, error)
}

// GoalRepo persists accepted goals.
type GoalRepo interface {
	AddGoal(g models.Goal) error

	// GetGoal returns a goal by ID, or nil if not found.
	GetGoal(id string) (*models.Goal, error)

	// ListGoals returns all goals for a user, newest first.
	ListGoals(userID string) ([]models.Goal, error)

	// ListGoalsForWeek returns a user's goals scoped to one program week.
	ListGoalsForWeek(userID string, week int) ([]models.Goal, error)
}

// TaskRepo persists accepted tasks.
type TaskRepo interface {
	AddTask(tk models.Task) error

	// GetTask returns a task by ID, or nil if not found.
	GetTask(id string) (*models.Task, error)

	// ListTasks returns all tasks for one goal.
	ListTasks(goalID string) ([]models.Task, error)

	// SetTaskDone updates a task's completion flag.
	SetTaskDone(id string, done bool) error
}

// ReflectionRepo persists weekly reflections and their analysis lifecycle.
type ReflectionRepo interface {
	AddReflection(r models.Reflection) error

	// GetReflection returns a reflection by ID, or nil if not found.
	GetReflection(id string) (*models.Reflection, error)

	// GetReflectionForWeek returns a user's reflection for one program week,
	// or nil if none was submitted.
	GetReflectionForWeek(userID string, week int) (*models.Reflection, error)

	// ListReflections returns all reflections for a user, oldest first.
	ListReflections(userID string) ([]models.Reflection, error)

	// UpdateReflectionAnalysis stores the analysis result and status produced
	// by the background analysis job.
	UpdateReflectionAnalysis(id string, analysisJSON string, status models.AnalysisStatus) error
}

// Store is the full persistence surface the service layer depends on.
type Store interface {
	ProgramStateRepo
	GoalRepo
	TaskRepo
	ReflectionRepo
	JobRepo

	Close() error
}
