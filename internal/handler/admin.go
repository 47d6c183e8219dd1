package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/forkina/evaluator/internal/i18n"
	"github.com/forkina/evaluator/internal/model"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("list users failed", "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	respondData(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username  string         `json:"username"`
	Password  string         `json:"password"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Role      model.UserRole `json:"role"`
	TeamID    *int64         `json:"teamId"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	switch req.Role {
	case model.UserRoleStudent, model.UserRoleTutor, model.UserRoleAdmin:
	default:
		respondError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		slog.Error("user lookup failed", "username", req.Username, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "username already taken")
		return
	}

	if req.TeamID != nil {
		team, err := h.store.GetTeam(*req.TeamID)
		if err != nil {
			slog.Error("team lookup failed", "team_id", *req.TeamID, "error", err)
			respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
			return
		}
		if team == nil {
			respondError(w, http.StatusBadRequest, i18n.T(r.Context(), "TeamNotFound"))
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("password hash failed", "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}

	user := model.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	id, err := h.store.CreateUser(user)
	if err != nil {
		slog.Error("create user failed", "username", req.Username, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	user.ID = id

	// Team assignment goes through AddTeamMember so team_members and the
	// users.team_id mirror stay in sync.
	if req.TeamID != nil {
		if err := h.store.AddTeamMember(*req.TeamID, id); err != nil {
			slog.Error("assign team failed", "user_id", id, "team_id", *req.TeamID, "error", err)
			respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
			return
		}
		user.TeamID = req.TeamID
	}
	respondData(w, http.StatusCreated, user)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.store.ListTeams()
	if err != nil {
		slog.Error("list teams failed", "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	respondData(w, http.StatusOK, teams)
}

type createTeamRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := h.store.CreateTeam(req.Name)
	if err != nil {
		slog.Error("create team failed", "name", req.Name, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	slog.Info("created team", "id", id, "name", req.Name)
	respondData(w, http.StatusCreated, model.Team{ID: id, Name: req.Name})
}

type addMemberRequest struct {
	UserID int64 `json:"userId"`
}

func (h *Handler) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlID(r, "teamID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var req addMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	team, err := h.store.GetTeam(teamID)
	if err != nil {
		slog.Error("team lookup failed", "team_id", teamID, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	if team == nil {
		respondError(w, http.StatusNotFound, i18n.T(r.Context(), "TeamNotFound"))
		return
	}
	user, err := h.store.GetUserByID(req.UserID)
	if err != nil {
		slog.Error("user lookup failed", "user_id", req.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err := h.store.AddTeamMember(teamID, req.UserID); err != nil {
		slog.Error("add team member failed", "team_id", teamID, "user_id", req.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	team, err = h.store.GetTeam(teamID)
	if err != nil || team == nil {
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	respondData(w, http.StatusOK, team)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if self := model.UserFromContext(r.Context()); self != nil && self.ID == id {
		respondError(w, http.StatusBadRequest, "cannot deactivate your own account")
		return
	}
	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("toggle user failed", "user_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	respondData(w, http.StatusOK, user)
}
