package store

import (
	"database/sql"
	"fmt"

	"github.com/stridecoach/stride/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanner abstracts sql.Row and sql.Rows so each entity needs one scan body.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProgramStateFrom(sc scanner) (models.ProgramState, error) {
	var state models.ProgramState
	var startDate sql.NullTime
	var purpose, phone sql.NullString
	err := sc.Scan(
		&state.UserID, &state.ProgramWeek, &startDate, &purpose, &phone,
		&state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		return state, err
	}
	if startDate.Valid {
		state.ProgramStartDate = &startDate.Time
	}
	state.Purpose = purpose.String
	state.Phone = phone.String
	return state, nil
}

func scanProgramState(rows *sql.Rows) (models.ProgramState, error) {
	state, err := scanProgramStateFrom(rows)
	if err != nil {
		return state, fmt.Errorf("scan program state failed: %w", err)
	}
	return state, nil
}

func scanProgramStateRow(row *sql.Row) (models.ProgramState, error) {
	return scanProgramStateFrom(row)
}

func scanGoalFrom(sc scanner) (models.Goal, error) {
	var g models.Goal
	var category string
	var reasoning, source sql.NullString
	err := sc.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &category, &reasoning,
		&g.WeekNumber, &source, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return g, err
	}
	g.Category = models.GoalCategory(category)
	g.Reasoning = reasoning.String
	g.Source = source.String
	return g, nil
}

func scanGoal(rows *sql.Rows) (models.Goal, error) {
	g, err := scanGoalFrom(rows)
	if err != nil {
		return g, fmt.Errorf("scan goal failed: %w", err)
	}
	return g, nil
}

func scanGoalRow(row *sql.Row) (models.Goal, error) {
	return scanGoalFrom(row)
}

func scanTaskFrom(sc scanner) (models.Task, error) {
	var tk models.Task
	var schedule, estimated, reasoning sql.NullString
	err := sc.Scan(
		&tk.ID, &tk.GoalID, &tk.UserID, &tk.Title, &tk.Description,
		&schedule, &estimated, &reasoning, &tk.Done, &tk.CreatedAt, &tk.UpdatedAt,
	)
	if err != nil {
		return tk, err
	}
	tk.RecommendedSchedule = schedule.String
	tk.EstimatedTime = estimated.String
	tk.Reasoning = reasoning.String
	return tk, nil
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	tk, err := scanTaskFrom(rows)
	if err != nil {
		return tk, fmt.Errorf("scan task failed: %w", err)
	}
	return tk, nil
}

func scanTaskRow(row *sql.Row) (models.Task, error) {
	return scanTaskFrom(row)
}

func scanReflectionFrom(sc scanner) (models.Reflection, error) {
	var r models.Reflection
	var analysisJSON sql.NullString
	var status string
	err := sc.Scan(
		&r.ID, &r.UserID, &r.WeekNumber, &r.Wins, &r.Lessons, &r.NextSteps,
		&analysisJSON, &status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return r, err
	}
	r.AnalysisJSON = analysisJSON.String
	r.AnalysisStatus = models.AnalysisStatus(status)
	return r, nil
}

func scanReflection(rows *sql.Rows) (models.Reflection, error) {
	r, err := scanReflectionFrom(rows)
	if err != nil {
		return r, fmt.Errorf("scan reflection failed: %w", err)
	}
	return r, nil
}

func scanReflectionRow(row *sql.Row) (models.Reflection, error) {
	return scanReflectionFrom(row)
}

func scanJobFrom(sc scanner) (Job, error) {
	var j Job
	var payloadJSON, lastError, dedupeKey sql.NullString
	var lockedAt sql.NullTime
	err := sc.Scan(
		&j.ID, &j.Kind, &j.RunAt, &payloadJSON, &j.Status, &j.Attempt, &j.MaxAttempts,
		&lastError, &lockedAt, &dedupeKey, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return j, err
	}
	j.PayloadJSON = payloadJSON.String
	j.LastError = lastError.String
	j.DedupeKey = dedupeKey.String
	if lockedAt.Valid {
		j.LockedAt = &lockedAt.Time
	}
	return j, nil
}

func scanJob(rows *sql.Rows) (Job, error) {
	j, err := scanJobFrom(rows)
	if err != nil {
		return j, fmt.Errorf("scan job failed: %w", err)
	}
	return j, nil
}

func scanJobRow(row *sql.Row) (Job, error) {
	return scanJobFrom(row)
}
