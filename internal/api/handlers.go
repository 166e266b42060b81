// Package api provides HTTP handlers for Stride endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stridecoach/stride/internal/models"
)

// userID pulls the caller's user ID from the request header.
func userID(r *http.Request) string {
	return r.Header.Get(UserIDHeader)
}

// requireMethod enforces the HTTP method and writes the 405 itself.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		slog.Warn("Server: method not allowed", "method", r.Method, "path", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeServiceError maps service-layer sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrEmptyUserID):
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing X-User-ID header"))
	case errors.Is(err, models.ErrInvalidWeek):
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
	case errors.Is(err, models.ErrProgramNotStarted):
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
	case errors.Is(err, models.ErrGoalNotFound), errors.Is(err, models.ErrReflectionNotFound):
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
	case errors.Is(err, models.ErrProgramAlreadyStarted), errors.Is(err, models.ErrProgramComplete):
		writeJSONResponse(w, http.StatusConflict, models.Error(err.Error()))
	default:
		slog.Error("Server: request failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
	}
}

type startProgramRequest struct {
	Purpose string `json:"purpose"`
	Phone   string `json:"phone"`
}

func (s *Server) startProgramHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req startProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.startProgramHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	state, err := s.svc.StartProgram(r.Context(), userID(r), req.Purpose, req.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	slog.Info("Server.startProgramHandler: program started", "userID", state.UserID)
	writeJSONResponse(w, http.StatusCreated, models.Success(state))
}

func (s *Server) currentWeekHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	status, err := s.svc.CurrentWeek(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(status))
}

func (s *Server) advanceWeekHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	state, err := s.svc.AdvanceWeek(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	slog.Info("Server.advanceWeekHandler: advanced", "userID", state.UserID, "week", state.ProgramWeek)
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

func (s *Server) generateGoalsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	result, err := s.svc.GenerateGoals(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

type acceptGoalRequest struct {
	models.GoalSuggestion
	Source string `json:"source"`
}

func (s *Server) acceptGoalHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req acceptGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.acceptGoalHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Title == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: title"))
		return
	}

	goal, err := s.svc.AcceptGoal(r.Context(), userID(r), req.GoalSuggestion, req.Source)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(goal))
}

type generateTasksRequest struct {
	GoalID string `json:"goalId"`
}

func (s *Server) generateTasksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req generateTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.generateTasksHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.GoalID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: goalId"))
		return
	}

	result, err := s.svc.GenerateTasks(r.Context(), userID(r), req.GoalID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

type acceptTaskRequest struct {
	models.TaskSuggestion
	GoalID string `json:"goalId"`
}

func (s *Server) acceptTaskHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req acceptTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.acceptTaskHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.GoalID == "" || req.Title == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required fields: goalId, title"))
		return
	}

	task, err := s.svc.AcceptTask(r.Context(), userID(r), req.GoalID, req.TaskSuggestion)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Success(task))
}

type submitReflectionRequest struct {
	Wins      string `json:"wins"`
	Lessons   string `json:"lessons"`
	NextSteps string `json:"nextSteps"`
}

// reflectionsHandler serves POST (submit) and GET (fetch one week or list).
func (s *Server) reflectionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitReflection(w, r)
	case http.MethodGet:
		s.getReflections(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.reflectionsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitReflection(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var req submitReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.submitReflection: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	reflection, err := s.svc.SubmitReflection(r.Context(), userID(r), req.Wins, req.Lessons, req.NextSteps)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Analysis runs in the background; the caller polls GET /reflections.
	writeJSONResponse(w, http.StatusAccepted, models.Accepted(reflection))
}

func (s *Server) getReflections(w http.ResponseWriter, r *http.Request) {
	weekParam := r.URL.Query().Get("week")
	if weekParam == "" {
		reflections, err := s.svc.ListReflections(r.Context(), userID(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(reflections))
		return
	}

	week, err := strconv.Atoi(weekParam)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid week parameter"))
		return
	}

	reflection, err := s.svc.GetReflection(r.Context(), userID(r), week)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(reflection))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
