// Package store: in-memory backend used in tests and local development.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stridecoach/stride/internal/models"
	"github.com/stridecoach/stride/internal/util"
)

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps everything in maps behind one mutex. It implements the
// full Store interface, jobs included, so the service layer and job runner
// can be exercised without a database.
type InMemoryStore struct {
	mu          sync.Mutex
	states      map[string]models.ProgramState
	goals       map[string]models.Goal
	tasks       map[string]models.Task
	reflections map[string]models.Reflection
	jobs        map[string]Job
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		states:      make(map[string]models.ProgramState),
		goals:       make(map[string]models.Goal),
		tasks:       make(map[string]models.Task),
		reflections: make(map[string]models.Reflection),
		jobs:        make(map[string]Job),
	}
}

func (s *InMemoryStore) SaveProgramState(state models.ProgramState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.UserID] = state
	return nil
}

func (s *InMemoryStore) GetProgramState(userID string) (*models.ProgramState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *InMemoryStore) ListProgramStates() ([]models.ProgramState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make([]models.ProgramState, 0, len(s.states))
	for _, state := range s.states {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].UserID < states[j].UserID })
	return states, nil
}

func (s *InMemoryStore) AddGoal(g models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *InMemoryStore) GetGoal(id string) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *InMemoryStore) ListGoals(userID string) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var goals []models.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	return goals, nil
}

func (s *InMemoryStore) ListGoalsForWeek(userID string, week int) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var goals []models.Goal
	for _, g := range s.goals {
		if g.UserID == userID && g.WeekNumber == week {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	return goals, nil
}

func (s *InMemoryStore) AddTask(tk models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[tk.ID] = tk
	return nil
}

func (s *InMemoryStore) GetTask(id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tk, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &tk, nil
}

func (s *InMemoryStore) ListTasks(goalID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []models.Task
	for _, tk := range s.tasks {
		if tk.GoalID == goalID {
			tasks = append(tasks, tk)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (s *InMemoryStore) SetTaskDone(id string, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tk, ok := s.tasks[id]
	if !ok {
		return nil
	}
	tk.Done = done
	tk.UpdatedAt = time.Now()
	s.tasks[id] = tk
	return nil
}

func (s *InMemoryStore) AddReflection(r models.Reflection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Mirror the SQL stores' UNIQUE (user_id, week_number) constraint.
	for _, existing := range s.reflections {
		if existing.UserID == r.UserID && existing.WeekNumber == r.WeekNumber {
			return fmt.Errorf("reflection already exists for user %s week %d", r.UserID, r.WeekNumber)
		}
	}
	s.reflections[r.ID] = r
	return nil
}

func (s *InMemoryStore) GetReflection(id string) (*models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reflections[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *InMemoryStore) GetReflectionForWeek(userID string, week int) (*models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reflections {
		if r.UserID == userID && r.WeekNumber == week {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) ListReflections(userID string) ([]models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reflections []models.Reflection
	for _, r := range s.reflections {
		if r.UserID == userID {
			reflections = append(reflections, r)
		}
	}
	sort.Slice(reflections, func(i, j int) bool { return reflections[i].WeekNumber < reflections[j].WeekNumber })
	return reflections, nil
}

func (s *InMemoryStore) UpdateReflectionAnalysis(id string, analysisJSON string, status models.AnalysisStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reflections[id]
	if !ok {
		return nil
	}
	r.AnalysisJSON = analysisJSON
	r.AnalysisStatus = status
	r.UpdatedAt = time.Now()
	s.reflections[id] = r
	return nil
}

func (s *InMemoryStore) EnqueueJob(kind string, runAt time.Time, payloadJSON string, dedupeKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dedupeKey != "" {
		for _, j := range s.jobs {
			if j.DedupeKey == dedupeKey && j.Status != JobStatusDone && j.Status != JobStatusCanceled {
				return j.ID, nil
			}
		}
	}

	now := time.Now()
	job := Job{
		ID:          util.GenerateJobID(),
		Kind:        kind,
		RunAt:       runAt,
		PayloadJSON: payloadJSON,
		Status:      JobStatusQueued,
		MaxAttempts: 3,
		DedupeKey:   dedupeKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.jobs[job.ID] = job
	return job.ID, nil
}

func (s *InMemoryStore) ClaimDueJobs(now time.Time, limit int) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Job
	for _, j := range s.jobs {
		if j.Status == JobStatusQueued && !j.RunAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].RunAt.Before(due[j].RunAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	for i := range due {
		j := due[i]
		j.Status = JobStatusRunning
		locked := now
		j.LockedAt = &locked
		j.UpdatedAt = now
		s.jobs[j.ID] = j
		due[i] = j
	}
	return due, nil
}

func (s *InMemoryStore) CompleteJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	j.Status = JobStatusDone
	j.LockedAt = nil
	j.UpdatedAt = time.Now()
	s.jobs[id] = j
	return nil
}

func (s *InMemoryStore) FailJob(id string, errMsg string, nextRunAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	j.Attempt++
	j.LastError = errMsg
	j.LockedAt = nil
	j.UpdatedAt = time.Now()
	if j.Attempt >= j.MaxAttempts {
		j.Status = JobStatusFailed
	} else {
		j.Status = JobStatusQueued
		j.RunAt = nextRunAt
	}
	s.jobs[id] = j
	return nil
}

func (s *InMemoryStore) CancelJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	j.Status = JobStatusCanceled
	j.LockedAt = nil
	j.UpdatedAt = time.Now()
	s.jobs[id] = j
	return nil
}

func (s *InMemoryStore) RequeueStaleRunningJobs(staleBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.jobs {
		if j.Status == JobStatusRunning && j.LockedAt != nil && j.LockedAt.Before(staleBefore) {
			j.Status = JobStatusQueued
			j.LockedAt = nil
			j.UpdatedAt = time.Now()
			s.jobs[id] = j
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) GetJob(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
