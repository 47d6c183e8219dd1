package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forkina/evaluator/internal/i18n"
	"github.com/forkina/evaluator/internal/model"
)

const sessionCookieName = "session_token"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByUsername(req.Username)
	if err != nil {
		slog.Error("login lookup failed", "username", req.Username, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	if user == nil || !user.Active {
		respondError(w, http.StatusUnauthorized, i18n.T(r.Context(), "LoginError"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, i18n.T(r.Context(), "LoginError"))
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("create auth session failed", "user_id", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("user logged in", "username", user.Username, "role", user.Role)
	respondData(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.store.DeleteAuthSession(cookie.Value); err != nil {
			slog.Warn("delete auth session failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondData(w, http.StatusOK, nil)
}

// requireAuth resolves the session cookie into a user and stores it on
// the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		sess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("auth session lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
			return
		}
		if sess == nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		user, err := h.store.GetUserByID(sess.UserID)
		if err != nil {
			slog.Error("auth user lookup failed", "user_id", sess.UserID, "error", err)
			respondError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
			return
		}
		if user == nil || !user.Active {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithUser(r.Context(), user)))
	})
}

// requireRole restricts a route group to the given roles. It must run
// after requireAuth.
func requireRole(roles ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil || !slices.Contains(roles, user.Role) {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
