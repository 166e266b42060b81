// Package api provides HTTP handlers and the API server for Stride.
//
// It exposes RESTful endpoints for program progression, goal and task
// generation, and weekly reflections. User identity comes from the X-User-ID
// header; authentication sits in front of this service.
package api

import (
	"net/http"

	"github.com/stridecoach/stride/internal/coach"
)

// UserIDHeader carries the caller's user ID.
const UserIDHeader = "X-User-ID"

// Server holds the handlers' dependencies.
type Server struct {
	svc *coach.Service
}

// NewServer creates an API server over the coaching service.
func NewServer(svc *coach.Service) *Server {
	return &Server{svc: svc}
}

// Handler returns the server's routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/program/start", s.startProgramHandler)
	mux.HandleFunc("/program/week", s.currentWeekHandler)
	mux.HandleFunc("/program/advance", s.advanceWeekHandler)
	mux.HandleFunc("/goals/generate", s.generateGoalsHandler)
	mux.HandleFunc("/goals", s.acceptGoalHandler)
	mux.HandleFunc("/tasks/generate", s.generateTasksHandler)
	mux.HandleFunc("/tasks", s.acceptTaskHandler)
	mux.HandleFunc("/reflections", s.reflectionsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}
