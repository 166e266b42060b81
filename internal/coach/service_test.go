package coach

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stridecoach/stride/internal/generation"
	"github.com/stridecoach/stride/internal/models"
	"github.com/stridecoach/stride/internal/store"
)

// recordingSender records reminders instead of sending them.
type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return recipient, nil
}

func (r *recordingSender) SendReminder(ctx context.Context, to string, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return nil
}

// newTestService builds a service over the in-memory store with no providers
// configured, so every generation serves static content.
func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *store.InMemoryStore, *recordingSender) {
	t.Helper()
	st := store.NewInMemoryStore()
	router := generation.NewRouter(generation.NewChain(generation.Policy{}))
	sender := &recordingSender{}
	return NewService(st, router, sender, opts...), st, sender
}

func TestStartProgram(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	state, err := svc.StartProgram(ctx, "u1", "write more", "+15550001111")
	if err != nil {
		t.Fatalf("StartProgram: %v", err)
	}
	if state.ProgramWeek != models.FirstWeek {
		t.Errorf("week = %d, want %d", state.ProgramWeek, models.FirstWeek)
	}
	if state.ProgramStartDate == nil {
		t.Error("start date should be set")
	}

	if _, err := svc.StartProgram(ctx, "u1", "", ""); !errors.Is(err, models.ErrProgramAlreadyStarted) {
		t.Errorf("second start err = %v, want ErrProgramAlreadyStarted", err)
	}
	if _, err := svc.StartProgram(ctx, "", "", ""); !errors.Is(err, models.ErrEmptyUserID) {
		t.Errorf("empty user err = %v, want ErrEmptyUserID", err)
	}
}

func TestCurrentWeekTracksElapsedTime(t *testing.T) {
	now := time.Now()
	clock := now
	svc, _, _ := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	if _, err := svc.CurrentWeek(ctx, "u1"); !errors.Is(err, models.ErrProgramNotStarted) {
		t.Fatalf("err = %v, want ErrProgramNotStarted", err)
	}

	if _, err := svc.StartProgram(ctx, "u1", "", ""); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}

	status, err := svc.CurrentWeek(ctx, "u1")
	if err != nil {
		t.Fatalf("CurrentWeek: %v", err)
	}
	if status.Week != 1 || status.Theme.Title != "Purpose" {
		t.Errorf("day 0 status = %+v", status)
	}

	// 10 days in: week 2, Rhythm.
	clock = now.AddDate(0, 0, 10)
	status, err = svc.CurrentWeek(ctx, "u1")
	if err != nil {
		t.Fatalf("CurrentWeek: %v", err)
	}
	if status.Week != 2 || status.Theme.Title != "Rhythm" {
		t.Errorf("day 10 status = %+v", status)
	}
	if status.ReflectionDue {
		t.Error("day 10 (day 3 of week 2) should not be in the reflection window")
	}

	// Day 12 is day 5 of week 2: reflection due.
	clock = now.AddDate(0, 0, 12)
	status, _ = svc.CurrentWeek(ctx, "u1")
	if !status.ReflectionDue {
		t.Error("day 12 should be in the reflection window")
	}

	// Past 35 days the program is complete and the week stays clamped at 5.
	clock = now.AddDate(0, 0, 40)
	status, _ = svc.CurrentWeek(ctx, "u1")
	if status.Week != 5 || !status.ProgramComplete {
		t.Errorf("day 40 status = %+v", status)
	}
}

func TestAdvanceWeekStopsAtFinalWeek(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartProgram(ctx, "u1", "", ""); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}

	for want := 2; want <= 5; want++ {
		state, err := svc.AdvanceWeek(ctx, "u1")
		if err != nil {
			t.Fatalf("AdvanceWeek to %d: %v", want, err)
		}
		if state.ProgramWeek != want {
			t.Fatalf("week = %d, want %d", state.ProgramWeek, want)
		}
	}

	if _, err := svc.AdvanceWeek(ctx, "u1"); !errors.Is(err, models.ErrProgramComplete) {
		t.Fatalf("advance at week 5 err = %v, want ErrProgramComplete", err)
	}

	status, _ := svc.CurrentWeek(ctx, "u1")
	if status.Week != 5 {
		t.Errorf("week after rejected advance = %d, want 5", status.Week)
	}
}

func TestGenerateAndAcceptGoalsAndTasks(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartProgram(ctx, "u1", "deeper work", ""); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}

	gen, err := svc.GenerateGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("GenerateGoals: %v", err)
	}
	if len(gen.Suggestions) == 0 || gen.Source != generation.SourceStatic {
		t.Fatalf("unexpected generation: %+v", gen)
	}

	goal, err := svc.AcceptGoal(ctx, "u1", gen.Suggestions[0], gen.Source)
	if err != nil {
		t.Fatalf("AcceptGoal: %v", err)
	}
	if goal.WeekNumber != 1 || goal.Source != generation.SourceStatic {
		t.Errorf("unexpected goal: %+v", goal)
	}

	saved, _ := st.ListGoalsForWeek("u1", 1)
	if len(saved) != 1 {
		t.Fatalf("persisted goals = %d, want 1", len(saved))
	}

	tasks, err := svc.GenerateTasks(ctx, "u1", goal.ID)
	if err != nil {
		t.Fatalf("GenerateTasks: %v", err)
	}
	if tasks.Week != goal.WeekNumber || len(tasks.Suggestions) == 0 {
		t.Fatalf("unexpected task generation: %+v", tasks)
	}

	task, err := svc.AcceptTask(ctx, "u1", goal.ID, tasks.Suggestions[0])
	if err != nil {
		t.Fatalf("AcceptTask: %v", err)
	}
	if task.GoalID != goal.ID || task.Done {
		t.Errorf("unexpected task: %+v", task)
	}

	if _, err := svc.GenerateTasks(ctx, "u1", "g_missing"); !errors.Is(err, models.ErrGoalNotFound) {
		t.Errorf("missing goal err = %v, want ErrGoalNotFound", err)
	}
	if _, err := svc.GenerateTasks(ctx, "u2", goal.ID); !errors.Is(err, models.ErrProgramNotStarted) {
		t.Errorf("stranger err = %v, want ErrProgramNotStarted", err)
	}
}

func TestSubmitReflectionRunsAnalysisInBackground(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartProgram(ctx, "u1", "", ""); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}

	reflection, err := svc.SubmitReflection(ctx, "u1", "kept my streak", "mornings work", "start earlier")
	if err != nil {
		t.Fatalf("SubmitReflection: %v", err)
	}
	if reflection.AnalysisStatus != models.AnalysisPending {
		t.Fatalf("status = %s, want pending", reflection.AnalysisStatus)
	}

	// The analysis job is queued with the reflection ID as dedupe key.
	jobs, err := st.ClaimDueJobs(time.Now().Add(time.Second), 10)
	if err != nil {
		t.Fatalf("ClaimDueJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Kind != JobKindReflectionAnalysis {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	var payload reflectionJobPayload
	if err := json.Unmarshal([]byte(jobs[0].PayloadJSON), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ReflectionID != reflection.ID {
		t.Errorf("payload reflection = %s, want %s", payload.ReflectionID, reflection.ID)
	}

	// Run the handler the way the job runner would.
	if err := svc.runReflectionAnalysis(ctx, jobs[0].PayloadJSON); err != nil {
		t.Fatalf("runReflectionAnalysis: %v", err)
	}

	got, err := svc.GetReflection(ctx, "u1", reflection.WeekNumber)
	if err != nil {
		t.Fatalf("GetReflection: %v", err)
	}
	if got.AnalysisStatus != models.AnalysisDone {
		t.Fatalf("status = %s, want done", got.AnalysisStatus)
	}

	var analysis models.ReflectionAnalysis
	if err := json.Unmarshal([]byte(got.AnalysisJSON), &analysis); err != nil {
		t.Fatalf("analysis JSON: %v", err)
	}
	if len(analysis.Insights) == 0 || analysis.NextWeekFocus == "" {
		t.Errorf("analysis should be non-empty even without providers: %+v", analysis)
	}
}

func TestSubmitReflectionEndToEndThroughRunner(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	runner := store.NewJobRunner(st)
	svc.RegisterJobHandlers(runner)

	if _, err := svc.StartProgram(ctx, "u1", "", ""); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}
	reflection, err := svc.SubmitReflection(ctx, "u1", "shipped", "", "")
	if err != nil {
		t.Fatalf("SubmitReflection: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		runner.Run(runCtx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := st.GetReflection(reflection.ID)
		if got != nil && got.AnalysisStatus == models.AnalysisDone {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	got, _ := st.GetReflection(reflection.ID)
	if got.AnalysisStatus != models.AnalysisDone {
		t.Fatalf("status = %s, want done", got.AnalysisStatus)
	}
}

func TestGetReflectionErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetReflection(ctx, "u1", 0); !errors.Is(err, models.ErrInvalidWeek) {
		t.Errorf("week 0 err = %v, want ErrInvalidWeek", err)
	}
	if _, err := svc.GetReflection(ctx, "u1", 2); !errors.Is(err, models.ErrReflectionNotFound) {
		t.Errorf("missing reflection err = %v, want ErrReflectionNotFound", err)
	}
}

func TestSweepReflectionReminders(t *testing.T) {
	now := time.Now()
	clock := now
	svc, st, sender := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	// due: day 5 of week 1, has a phone, no reflection yet.
	if _, err := svc.StartProgram(ctx, "due", "", "+15550001111"); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}
	// no-phone: same position but unreachable.
	if _, err := svc.StartProgram(ctx, "no-phone", "", ""); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}

	clock = now.AddDate(0, 0, 5)

	// already-reflected: submitted this week, no nag.
	if _, err := svc.StartProgram(ctx, "reflected", "", "+15550002222"); err != nil {
		t.Fatalf("StartProgram: %v", err)
	}
	// Move their start back so they are also on day 5.
	state, _ := st.GetProgramState("reflected")
	start := now
	state.ProgramStartDate = &start
	if err := st.SaveProgramState(*state); err != nil {
		t.Fatalf("SaveProgramState: %v", err)
	}
	if _, err := svc.SubmitReflection(ctx, "reflected", "done", "", ""); err != nil {
		t.Fatalf("SubmitReflection: %v", err)
	}

	sent, err := svc.SweepReflectionReminders(ctx)
	if err != nil {
		t.Fatalf("SweepReflectionReminders: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "+15550001111" {
		t.Errorf("reminders sent to %v", sender.sent)
	}

	// Mid-week nobody is nagged.
	clock = now.AddDate(0, 0, 8)
	sent, _ = svc.SweepReflectionReminders(ctx)
	if sent != 0 {
		t.Errorf("mid-week sweep sent %d reminders", sent)
	}
}
