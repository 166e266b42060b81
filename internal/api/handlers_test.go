package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stridecoach/stride/internal/coach"
	"github.com/stridecoach/stride/internal/generation"
	"github.com/stridecoach/stride/internal/messaging"
	"github.com/stridecoach/stride/internal/models"
	"github.com/stridecoach/stride/internal/store"
)

// newTestServer wires a server over the in-memory store with no providers,
// so generation always serves static content.
func newTestServer(t *testing.T) (http.Handler, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	router := generation.NewRouter(generation.NewChain(generation.Policy{}))
	svc := coach.NewService(st, router, messaging.NewLogSender())
	return NewServer(svc).Handler(), st
}

func doRequest(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doRequest(t, h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Status != string(models.APIStatusOK) {
		t.Errorf("envelope = %+v", resp)
	}
}

func TestStartProgram(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/program/start", "u1", `{"purpose":"write more"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Starting twice conflicts.
	rec = doRequest(t, h, http.MethodPost, "/program/start", "u1", `{}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", rec.Code)
	}

	// Missing user header.
	rec = doRequest(t, h, http.MethodPost, "/program/start", "", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user status = %d, want 400", rec.Code)
	}

	// Wrong method.
	rec = doRequest(t, h, http.MethodGet, "/program/start", "u1", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestCurrentWeekAndAdvance(t *testing.T) {
	h, _ := newTestServer(t)

	// Week before starting is a 404.
	rec := doRequest(t, h, http.MethodGet, "/program/week", "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("week before start status = %d, want 404", rec.Code)
	}

	doRequest(t, h, http.MethodPost, "/program/start", "u1", `{}`)

	rec = doRequest(t, h, http.MethodGet, "/program/week", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("week status = %d", rec.Code)
	}
	var status struct {
		Week  int `json:"week"`
		Theme struct {
			Title string `json:"title"`
		} `json:"theme"`
	}
	resp := decodeEnvelope(t, rec)
	raw, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Week != 1 || status.Theme.Title != "Purpose" {
		t.Errorf("status = %+v", status)
	}

	// Advance four times, then the fifth conflicts.
	for i := 0; i < 4; i++ {
		rec = doRequest(t, h, http.MethodPost, "/program/advance", "u1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("advance %d status = %d", i+1, rec.Code)
		}
	}
	rec = doRequest(t, h, http.MethodPost, "/program/advance", "u1", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("advance at week 5 status = %d, want 409", rec.Code)
	}
}

func TestGoalAndTaskFlow(t *testing.T) {
	h, _ := newTestServer(t)
	doRequest(t, h, http.MethodPost, "/program/start", "u1", `{"purpose":"focus"}`)

	rec := doRequest(t, h, http.MethodPost, "/goals/generate", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate goals status = %d", rec.Code)
	}
	var gen generation.GoalGeneration
	resp := decodeEnvelope(t, rec)
	raw, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &gen); err != nil {
		t.Fatalf("decode generation: %v", err)
	}
	if len(gen.Suggestions) == 0 || gen.Source != generation.SourceStatic {
		t.Fatalf("generation = %+v", gen)
	}

	// Accept the first suggestion.
	body, _ := json.Marshal(gen.Suggestions[0])
	accept := fmt.Sprintf(`{"source":%q,%s`, gen.Source, string(body[1:]))
	rec = doRequest(t, h, http.MethodPost, "/goals", "u1", accept)
	if rec.Code != http.StatusCreated {
		t.Fatalf("accept goal status = %d, body %s", rec.Code, rec.Body.String())
	}
	var goal models.Goal
	resp = decodeEnvelope(t, rec)
	raw, _ = json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}
	if goal.ID == "" || goal.WeekNumber != 1 {
		t.Fatalf("goal = %+v", goal)
	}

	// Break it into tasks.
	rec = doRequest(t, h, http.MethodPost, "/tasks/generate", "u1", fmt.Sprintf(`{"goalId":%q}`, goal.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("generate tasks status = %d, body %s", rec.Code, rec.Body.String())
	}
	var tasks generation.TaskGeneration
	resp = decodeEnvelope(t, rec)
	raw, _ = json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(tasks.Suggestions) == 0 {
		t.Fatal("no task suggestions")
	}

	taskBody, _ := json.Marshal(tasks.Suggestions[0])
	acceptTask := fmt.Sprintf(`{"goalId":%q,%s`, goal.ID, string(taskBody[1:]))
	rec = doRequest(t, h, http.MethodPost, "/tasks", "u1", acceptTask)
	if rec.Code != http.StatusCreated {
		t.Fatalf("accept task status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Unknown goal is a 404.
	rec = doRequest(t, h, http.MethodPost, "/tasks/generate", "u1", `{"goalId":"g_missing"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown goal status = %d, want 404", rec.Code)
	}
}

func TestReflectionFlow(t *testing.T) {
	h, st := newTestServer(t)
	doRequest(t, h, http.MethodPost, "/program/start", "u1", `{}`)

	rec := doRequest(t, h, http.MethodPost, "/reflections", "u1", `{"wins":"kept streak","lessons":"mornings","nextSteps":"earlier"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d, want 202", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != string(models.APIStatusAccepted) {
		t.Errorf("envelope status = %q", resp.Status)
	}

	// Immediately readable, analysis pending.
	rec = doRequest(t, h, http.MethodGet, "/reflections?week=1", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var reflection models.Reflection
	resp = decodeEnvelope(t, rec)
	raw, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &reflection); err != nil {
		t.Fatalf("decode reflection: %v", err)
	}
	if reflection.AnalysisStatus != models.AnalysisPending {
		t.Errorf("analysis status = %s, want pending", reflection.AnalysisStatus)
	}

	// The analysis job was enqueued durably.
	jobs, err := st.ClaimDueJobs(reflection.CreatedAt.Add(time.Second), 10)
	if err != nil {
		t.Fatalf("ClaimDueJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Kind != coach.JobKindReflectionAnalysis {
		t.Fatalf("jobs = %+v", jobs)
	}

	// Bad week values.
	rec = doRequest(t, h, http.MethodGet, "/reflections?week=0", "u1", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("week 0 status = %d, want 400", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/reflections?week=oops", "u1", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("week oops status = %d, want 400", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/reflections?week=3", "u1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing reflection status = %d, want 404", rec.Code)
	}

	// Listing returns the one reflection.
	rec = doRequest(t, h, http.MethodGet, "/reflections", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []models.Reflection
	resp = decodeEnvelope(t, rec)
	raw, _ = json.Marshal(resp.Result)
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list length = %d, want 1", len(list))
	}
}

func TestInvalidJSONBodies(t *testing.T) {
	h, _ := newTestServer(t)
	doRequest(t, h, http.MethodPost, "/program/start", "u1", `{}`)

	for _, path := range []string{"/goals", "/tasks/generate", "/tasks", "/reflections"} {
		rec := doRequest(t, h, http.MethodPost, path, "u1", `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s with bad JSON status = %d, want 400", path, rec.Code)
		}
	}
}
