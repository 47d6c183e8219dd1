package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/forkina/evaluator/internal/evaluation"
	"github.com/forkina/evaluator/internal/i18n"
	"github.com/forkina/evaluator/internal/model"
)

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	team, err := h.store.GetTeam(id)
	if err != nil {
		slog.Error("team lookup failed", "team_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	if team == nil {
		respondError(w, http.StatusNotFound, i18n.T(r.Context(), "TeamNotFound"))
		return
	}
	respondData(w, http.StatusOK, team)
}

func (h *Handler) handleUsersByTeam(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	users, err := h.store.UsersByTeam(id)
	if err != nil {
		slog.Error("users-by-team lookup failed", "team_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	respondData(w, http.StatusOK, users)
}

// handleGetEvaluationByTeam returns the team's evaluation record, or a
// successful null payload when the team has not been evaluated yet. The
// client treats null as "show an empty grid".
func (h *Handler) handleGetEvaluationByTeam(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	ev, err := h.store.GetEvaluationByTeam(id)
	if err != nil {
		slog.Error("evaluation lookup failed", "team_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": ev})
}

func (h *Handler) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var ev model.Evaluation
	if !decodeBody(w, r, &ev) {
		return
	}
	ev.TeamID = teamID
	if ev.EvaluatorID == 0 {
		ev.EvaluatorID = model.UserFromContext(r.Context()).ID
	}
	h.saveGrid(w, r, &ev, http.StatusCreated)
}

func (h *Handler) handleUpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "evaluationID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid evaluation id")
		return
	}
	existing, err := h.store.GetEvaluationByID(id)
	if err != nil {
		slog.Error("evaluation lookup failed", "evaluation_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, i18n.T(r.Context(), "InvalidEvaluation"))
		return
	}

	var ev model.Evaluation
	if !decodeBody(w, r, &ev) {
		return
	}
	ev.ID = existing.ID
	ev.TeamID = existing.TeamID
	if ev.EvaluatorID == 0 {
		ev.EvaluatorID = existing.EvaluatorID
	}
	h.saveGrid(w, r, &ev, http.StatusOK)
}

func (h *Handler) saveGrid(w http.ResponseWriter, r *http.Request, ev *model.Evaluation, okStatus int) {
	saved, err := h.svc.SaveGrid(ev)
	if err != nil {
		if errors.Is(err, evaluation.ErrValidation) {
			respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "InvalidEvaluation"))
			return
		}
		slog.Error("grid save failed", "team_id", ev.TeamID, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	respondData(w, okStatus, saved)
}
