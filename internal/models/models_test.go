package models

import (
	"testing"
	"time"
)

func TestNormalizeGoalCategory(t *testing.T) {
	cases := []struct {
		in   GoalCategory
		want GoalCategory
	}{
		{CategoryPersonal, CategoryPersonal},
		{CategoryProfessional, CategoryProfessional},
		{CategoryHealth, CategoryHealth},
		{CategoryLearning, CategoryLearning},
		{"career", CategoryPersonal},
		{"", CategoryPersonal},
		{"PERSONAL", CategoryPersonal},
	}
	for _, c := range cases {
		if got := NormalizeGoalCategory(c.in); got != c.want {
			t.Errorf("NormalizeGoalCategory(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsValidGenerationKind(t *testing.T) {
	for _, k := range []GenerationKind{KindGoals, KindTasks, KindReflection} {
		if !IsValidGenerationKind(k) {
			t.Errorf("expected %q to be valid", k)
		}
	}
	if IsValidGenerationKind("summary") {
		t.Error("expected unknown kind to be invalid")
	}
}

func TestProgramStateStarted(t *testing.T) {
	var s ProgramState
	if s.Started() {
		t.Error("zero state should not be started")
	}

	now := time.Now()
	s = ProgramState{ProgramWeek: 1, ProgramStartDate: &now}
	if !s.Started() {
		t.Error("week 1 with start date should be started")
	}

	// Week set without a start date violates the invariant; treat as not started.
	s = ProgramState{ProgramWeek: 2}
	if s.Started() {
		t.Error("state without start date should not be started")
	}
}
