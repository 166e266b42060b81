// Package store: SQLite-backed persistence.
//
// SQLite is the default backend. The DSN is a file path; the parent directory
// is created if missing and migrations run on open.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stridecoach/stride/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveProgramState(state models.ProgramState) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO program_states (user_id, program_week, program_start_date, purpose, phone, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		state.UserID, state.ProgramWeek, state.ProgramStartDate, nilIfEmpty(state.Purpose), nilIfEmpty(state.Phone),
		state.CreatedAt, state.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.SaveProgramState failed", "error", err, "userID", state.UserID)
		return fmt.Errorf("failed to save program state for %s: %w", state.UserID, err)
	}
	slog.Debug("SQLiteStore.SaveProgramState succeeded", "userID", state.UserID, "week", state.ProgramWeek)
	return nil
}

func (s *SQLiteStore) GetProgramState(userID string) (*models.ProgramState, error) {
	row := s.db.QueryRow(
		`SELECT user_id, program_week, program_start_date, purpose, phone, created_at, updated_at
		 FROM program_states WHERE user_id = ?`, userID)
	state, err := scanProgramStateRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetProgramState failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get program state for %s: %w", userID, err)
	}
	return &state, nil
}

func (s *SQLiteStore) ListProgramStates() ([]models.ProgramState, error) {
	rows, err := s.db.Query(
		`SELECT user_id, program_week, program_start_date, purpose, phone, created_at, updated_at
		 FROM program_states ORDER BY user_id`)
	if err != nil {
		slog.Error("SQLiteStore.ListProgramStates query failed", "error", err)
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

func (s *SQLiteStore) AddGoal(g models.Goal) error {
	_, err := s.db.Exec(
		`INSERT INTO goals (id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Description, string(g.Category), nilIfEmpty(g.Reasoning),
		g.WeekNumber, nilIfEmpty(g.Source), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.AddGoal failed", "error", err, "id", g.ID)
		return fmt.Errorf("failed to insert goal %s: %w", g.ID, err)
	}
	slog.Debug("SQLiteStore.AddGoal succeeded", "id", g.ID, "userID", g.UserID, "week", g.WeekNumber)
	return nil
}

func (s *SQLiteStore) GetGoal(id string) (*models.Goal, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at
		 FROM goals WHERE id = ?`, id)
	g, err := scanGoalRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal %s: %w", id, err)
	}
	return &g, nil
}

func (s *SQLiteStore) ListGoals(userID string) ([]models.Goal, error) {
	return s.queryGoals(
		`SELECT id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at
		 FROM goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (s *SQLiteStore) ListGoalsForWeek(userID string, week int) ([]models.Goal, error) {
	return s.queryGoals(
		`SELECT id, user_id, title, description, category, reasoning, week_number, source, created_at, updated_at
		 FROM goals WHERE user_id = ? AND week_number = ? ORDER BY created_at DESC`, userID, week)
}

func (s *SQLiteStore) queryGoals(query string, args ...interface{}) ([]models.Goal, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore goal query failed", "error", err)
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

func (s *SQLiteStore) AddTask(tk models.Task) error {
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, goal_id, user_id, title, description, recommended_schedule, estimated_time, reasoning, done, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tk.ID, tk.GoalID, tk.UserID, tk.Title, tk.Description, nilIfEmpty(tk.RecommendedSchedule),
		nilIfEmpty(tk.EstimatedTime), nilIfEmpty(tk.Reasoning), tk.Done, tk.CreatedAt, tk.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.AddTask failed", "error", err, "id", tk.ID)
		return fmt.Errorf("failed to insert task %s: %w", tk.ID, err)
	}
	slog.Debug("SQLiteStore.AddTask succeeded", "id", tk.ID, "goalID", tk.GoalID)
	return nil
}

func (s *SQLiteStore) GetTask(id string) (*models.Task, error) {
	row := s.db.QueryRow(
		`SELECT id, goal_id, user_id, title, description, recommended_schedule, estimated_time, reasoning, done, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	tk, err := scanTaskRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return &tk, nil
}

func (s *SQLiteStore) ListTasks(goalID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		`SELECT id, goal_id, user_id, title, description, recommended_schedule, estimated_time, reasoning, done, created_at, updated_at
		 FROM tasks WHERE goal_id = ? ORDER BY created_at ASC`, goalID)
	if err != nil {
		slog.Error("SQLiteStore.ListTasks query failed", "error", err, "goalID", goalID)
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

func (s *SQLiteStore) SetTaskDone(id string, done bool) error {
	_, err := s.db.Exec(`UPDATE tasks SET done = ?, updated_at = ? WHERE id = ?`, done, time.Now(), id)
	if err != nil {
		slog.Error("SQLiteStore.SetTaskDone failed", "error", err, "id", id)
		return fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) AddReflection(r models.Reflection) error {
	_, err := s.db.Exec(
		`INSERT INTO reflections (id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.WeekNumber, r.Wins, r.Lessons, r.NextSteps,
		nilIfEmpty(r.AnalysisJSON), string(r.AnalysisStatus), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore.AddReflection failed", "error", err, "id", r.ID)
		return fmt.Errorf("failed to insert reflection %s: %w", r.ID, err)
	}
	slog.Debug("SQLiteStore.AddReflection succeeded", "id", r.ID, "userID", r.UserID, "week", r.WeekNumber)
	return nil
}

func (s *SQLiteStore) GetReflection(id string) (*models.Reflection, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at
		 FROM reflections WHERE id = ?`, id)
	r, err := scanReflectionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteStore) GetReflectionForWeek(userID string, week int) (*models.Reflection, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at
		 FROM reflections WHERE user_id = ? AND week_number = ?`, userID, week)
	r, err := scanReflectionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection for %s week %d: %w", userID, week, err)
	}
	return &r, nil
}

func (s *SQLiteStore) ListReflections(userID string) ([]models.Reflection, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, week_number, wins, lessons, next_steps, analysis_json, analysis_status, created_at, updated_at
		 FROM reflections WHERE user_id = ? ORDER BY week_number ASC`, userID)
	if err != nil {
		slog.Error("SQLiteStore.ListReflections query failed", "error", err, "userID", userID)
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

func (s *SQLiteStore) UpdateReflectionAnalysis(id string, analysisJSON string, status models.AnalysisStatus) error {
	_, err := s.db.Exec(
		`UPDATE reflections SET analysis_json = ?, analysis_status = ?, updated_at = ? WHERE id = ?`,
		nilIfEmpty(analysisJSON), string(status), time.Now(), id,
	)
	if err != nil {
		slog.Error("SQLiteStore.UpdateReflectionAnalysis failed", "error", err, "id", id)
		return fmt.Errorf("failed to update reflection analysis %s: %w", id, err)
	}
	slog.Debug("SQLiteStore.UpdateReflectionAnalysis succeeded", "id", id, "status", status)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
