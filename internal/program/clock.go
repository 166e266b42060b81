package program

import (
	"log/slog"
	"time"

	"github.com/stridecoach/stride/internal/models"
)

// Reflection window: the last two days of each 7-day program week, counted
// from the user's start date (not a calendar week).
const (
	reflectionWindowFirstDay = 5
	reflectionWindowLastDay  = 6
)

// DaysElapsed returns the number of whole days between start and now. The
// result is negative when start is in the future.
func DaysElapsed(start, now time.Time) int {
	d := now.Sub(start)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// CurrentWeek computes the program week for a user who started at start,
// clamped to [1, 5]. A start date in the future clamps to week 1. Pure
// function of its two arguments.
func CurrentWeek(start, now time.Time) int {
	week := DaysElapsed(start, now)/models.DaysPerWeek + 1
	if week < models.FirstWeek {
		return models.FirstWeek
	}
	if week > models.FinalWeek {
		return models.FinalWeek
	}
	return week
}

// IsComplete reports whether the week-5 window has fully elapsed.
func IsComplete(start, now time.Time) bool {
	return DaysElapsed(start, now) >= models.FinalWeek*models.DaysPerWeek
}

// IsReflectionDue reports whether now falls in the last two days of the
// user's current 7-day program window. Always false before the program
// window opens and after the program is complete.
func IsReflectionDue(start, now time.Time) bool {
	days := DaysElapsed(start, now)
	if days < 0 || IsComplete(start, now) {
		return false
	}
	dayOfWeek := days % models.DaysPerWeek
	return dayOfWeek == reflectionWindowFirstDay || dayOfWeek == reflectionWindowLastDay
}

// Advance performs an explicit manual week increment on state, used for
// operator override and testing. It returns ErrProgramComplete without
// modifying state when the program is already at the final week, and
// ErrProgramNotStarted when the program has not begun.
func Advance(state *models.ProgramState) error {
	if !state.Started() {
		return models.ErrProgramNotStarted
	}
	if state.ProgramWeek >= models.FinalWeek {
		slog.Debug("program.Advance: already at final week", "userID", state.UserID, "week", state.ProgramWeek)
		return models.ErrProgramComplete
	}
	state.ProgramWeek++
	slog.Info("program.Advance: week advanced", "userID", state.UserID, "week", state.ProgramWeek)
	return nil
}

// Reconcile recomputes the stored week from the clock and updates state if
// the stored value has drifted behind. It never decreases the stored week.
// Returns true if state was modified and should be persisted by the caller.
func Reconcile(state *models.ProgramState, now time.Time) bool {
	if !state.Started() {
		return false
	}
	week := CurrentWeek(*state.ProgramStartDate, now)
	if week > state.ProgramWeek {
		slog.Debug("program.Reconcile: correcting stored week", "userID", state.UserID, "stored", state.ProgramWeek, "computed", week)
		state.ProgramWeek = week
		return true
	}
	return false
}
