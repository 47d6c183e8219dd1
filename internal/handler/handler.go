// Package handler exposes the JSON API.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/forkina/evaluator/internal/cache"
	"github.com/forkina/evaluator/internal/evaluation"
	"github.com/forkina/evaluator/internal/llm"
	"github.com/forkina/evaluator/internal/model"
	"github.com/forkina/evaluator/internal/quiz"
	"github.com/forkina/evaluator/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	llm      *llm.Client
	cache    cache.Cache
	sessions *quiz.Manager
	svc      *evaluation.Service
	validate *validator.Validate
	config   model.ServerConfig
}

// New creates a new Handler. The store doubles as both the evaluation
// persistence and the team directory.
func New(s *store.Store, l *llm.Client, c cache.Cache, cfg model.ServerConfig) *Handler {
	return &Handler{
		store:    s,
		llm:      l,
		cache:    c,
		sessions: quiz.NewManager(),
		svc:      evaluation.NewService(s, s),
		validate: validator.New(),
		config:   cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/teams/{teamID}", h.handleGetTeam)
		r.Get("/users/byteam/{teamID}", h.handleUsersByTeam)

		r.Post("/quiz/sessions", h.handleCreateSession)
		r.Get("/quiz/sessions/{sessionID}", h.handleGetSession)
		r.Put("/quiz/sessions/{sessionID}/answers", h.handleRecordAnswer)
		r.Post("/quiz/sessions/{sessionID}/grade", h.handleGrade)
		r.Post("/quiz/sessions/{sessionID}/reset", h.handleResetSession)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleTutor, model.UserRoleAdmin))
			r.Post("/quiz/from-repo", h.handleQuizFromRepo)
			r.Post("/quiz/sessions/{sessionID}/submit", h.handleSubmitResult)
			r.Get("/evaluations/team/{teamID}", h.handleGetEvaluationByTeam)
			r.Post("/evaluations/{teamID}", h.handleCreateEvaluation)
			r.Put("/evaluations/{evaluationID}", h.handleUpdateEvaluation)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/admin/users", h.handleListUsers)
			r.Post("/admin/users", h.handleCreateUser)
			r.Post("/admin/users/{userID}/toggle", h.handleToggleUserActive)
			r.Get("/admin/teams", h.handleListTeams)
			r.Post("/admin/teams", h.handleCreateTeam)
			r.Post("/admin/teams/{teamID}/members", h.handleAddTeamMember)
		})
	})
}

// envelope is the JSON response shape the SPA expects.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, envelope{Success: false, Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
