// Package store: PostgreSQL-backed persistence.
//
// Used when DATABASE_URL is set. Schema migrations run on open, same as the
// SQLite backend.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/stridecoach/stride/internal/models"
)

// Database connection pool configuration constants.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveProgramState(state models.ProgramState) error {
	_, err := s.db.Exec(
		`INSERT INTO program_states (user_id, program_week, program_start_date, purpose, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
		   program_week = EXCLUDED.program_week,
		   program_start_date = EXCLUDED.program_start_date,
		   purpose = EXCLUDED.purpose,
		   phone = EXCLUDED.phone,
		   updated_at = EXCLUDED.updated_at`,
		state.UserID, state.ProgramWeek, state.ProgramStartDate, nilIfEmpty(state.Purpose), nilIfEmpty(state.Phone),
		state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.SaveProgramState failed", "error", err, "userID", state.UserID)
		return fmt.Errorf("failed to save program state for %s: %w", state.UserID, err)
	}
	slog.Debug("PostgresStore.SaveProgramState succeeded", "userID", state.UserID, "week", state.ProgramWeek)
	return nil
}

func (s *PostgresStore) GetProgramState(userID string) (*models.ProgramState, error) {
	row := s.db.QueryRow(
		`SELECT user_id, program_week, program_start_date, purpose, phone, created_at, updated_at
		 FROM program_states WHERE user_id = $1`, userID)
	state, err := scanProgramStateRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetProgramState failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get program state for %s: %w", userID, err)
	}
	return &state, nil
}

func (s *PostgresStore) ListProgramStates() ([]models.ProgramState, error) {
	rows, err := s.db.Query(
		`SELECT user_id, program_week, program_start_date, purpose, phone, created_at, updated_at
		 FROM program_states ORDER BY user_id`)
	if err != nil {
		slog.Error("PostgresStore.ListProgramStates query failed", "error", err)
		return nil, fmt.Errorf("failed to query program states: %w", err)
	}
	defer rows.Close()

	var states []models.ProgramState
	for rows.Next() {
		state, err := scanProgramState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate program state rows: %w", err)
	}
	return states, nil
}

func (s *PostgresStore) AddGoal(g models.Goal) error {
	_, err := s.db.Exec(
		`INSERT INTO goals (id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.UserID, g.Title, g.Description, string(g.Category), nilIfEmpty(g.Reasoning),
		g.WeekNumber, nilIfEmpty(g.Source), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.AddGoal failed", "error", err, "id", g.ID)
		return fmt.Errorf("failed to insert goal %s: %w", g.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetGoal(id string) (*models.Goal, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at
		 FROM goals WHERE id = $1`, id)
	g, err := scanGoalRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal %s: %w", id, err)
	}
	return &g, nil
}

func (s *PostgresStore) ListGoals(userID string) ([]models.Goal, error) {
	return s.queryGoals(
		`SELECT id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at
		 FROM goals WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) ListGoalsForWeek(userID string, week int) ([]models.Goal, error) {
	return s.queryGoals(
		`SELECT id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at
		 FROM goals WHERE user_id = $1 AND week_number = $2 ORDER BY created_at DESC`, userID, week)
}

func (s *PostgresStore) queryGoals(query string, args ...interface{}) ([]models.Goal, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore goal query failed", "error", err)
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goal rows: %w", err)
	}
	return goals, nil
}

func (s *PostgresStore) AddTask(tk models.Task) error {
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, goal_id, user_id, title, description, recommended_schedule, estimated_time, reasoning, done, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tk.ID, tk.GoalID, tk.UserID, tk.Title, tk.Description, nilIfEmpty(tk.RecommendedSchedule),
		nilIfEmpty(tk.EstimatedTime), nilIfEmpty(tk.Reasoning), tk.Done, tk.CreatedAt, tk.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.AddTask failed", "error", err, "id", tk.ID)
		return fmt.Errorf("failed to insert task %s: %w", tk.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetTask(id string) (*models.Task, error) {
	row := s.db.QueryRow(
		`SELECT id, goal_id, user_id, title, description, recommended_schedule, estimated_time, reasoning, done, created_at, updated_at
		 FROM tasks WHERE id = $1`, id)
	tk, err := scanTaskRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &tk, nil
}

func (s *PostgresStore) ListTasks(goalID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		`SELECT id, goal_id, user_id, title, description, recommended_schedule, estimated_time, reasoning, done, created_at, updated_at
		 FROM tasks WHERE goal_id = $1 ORDER BY created_at ASC`, goalID)
	if err != nil {
		slog.Error("PostgresStore.ListTasks query failed", "error", err, "goalID", goalID)
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		tk, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStore) SetTaskDone(id string, done bool) error {
	_, err := s.db.Exec(`UPDATE tasks SET done = $1, updated_at = $2 WHERE id = $3`, done, time.Now(), id)
	if err != nil {
		slog.Error("PostgresStore.SetTaskDone failed", "error", err, "id", id)
		return fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) AddReflection(r models.Reflection) error {
	_, err := s.db.Exec(
		`INSERT INTO reflections (id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.UserID, r.WeekNumber, r.Wins, r.Lessons, r.NextSteps,
		nilIfEmpty(r.AnalysisJSON), string(r.AnalysisStatus), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore.AddReflection failed", "error", err, "id", r.ID)
		return fmt.Errorf("failed to insert reflection %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetReflection(id string) (*models.Reflection, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at
		 FROM reflections WHERE id = $1`, id)
	r, err := scanReflectionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection %s: %w", id, err)
	}
	return &r, nil
}

func (s *PostgresStore) GetReflectionForWeek(userID string, week int) (*models.Reflection, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at
		 FROM reflections WHERE user_id = $1 AND week_number = $2`, userID, week)
	r, err := scanReflectionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection for %s week %d: %w", userID, week, err)
	}
	return &r, nil
}

func (s *PostgresStore) ListReflections(userID string) ([]models.Reflection, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at
		 FROM reflections WHERE user_id = $1 ORDER BY week_number ASC`, userID)
	if err != nil {
		slog.Error("PostgresStore.ListReflections query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query reflections: %w", err)
	}
	defer rows.Close()

	var reflections []models.Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		reflections = append(reflections, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reflection rows: %w", err)
	}
	return reflections, nil
}

func (s *PostgresStore) UpdateReflectionAnalysis(id string, analysisJSON string, status models.AnalysisStatus) error {
	_, err := s.db.Exec(
		`UPDATE reflections SET analysis_json = $1, analysis_status = $2, updated_at = $3 WHERE id = $4`,
		nilIfEmpty(analysisJSON), string(status), time.Now(), id,
	)
	if err != nil {
		slog.Error("PostgresStore.UpdateReflectionAnalysis failed", "error", err, "id", id)
		return fmt.Errorf("failed to update reflection analysis %s: %w", id, err)
	}
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
