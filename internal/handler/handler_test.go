package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forkina/evaluator/internal/cache"
	appI18n "github.com/forkina/evaluator/internal/i18n"
	"github.com/forkina/evaluator/internal/model"
	"github.com/forkina/evaluator/internal/store"
)

type testEnv struct {
	router http.Handler
	store  *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	h := New(s, nil, cache.NewMemory(time.Minute), model.ServerConfig{Lang: "en", MaxSourceLen: 8000})
	r := chi.NewRouter()
	h.Routes(r)
	return &testEnv{router: r, store: s}
}

// loginAs creates a user with the given role and returns a session token.
func (e *testEnv) loginAs(t *testing.T, username string, role model.UserRole) string {
	t.Helper()
	id, err := e.store.CreateUser(model.User{
		Username:     username,
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	token, err := e.store.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got error %q", env.Error)
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v (%s)", err, env.Data)
		}
	}
}

func TestAdminTeamManagement(t *testing.T) {
	e := newTestEnv(t)
	admin := e.loginAs(t, "admin", model.UserRoleAdmin)

	// Create a team.
	rec := e.do(t, http.MethodPost, "/admin/teams", admin, map[string]any{"name": "alpha"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create team: status %d, body %s", rec.Code, rec.Body.String())
	}
	var team model.Team
	decodeData(t, rec, &team)
	if team.ID == 0 || team.Name != "alpha" {
		t.Fatalf("unexpected team: %+v", team)
	}

	// Create a student, then attach them to the team.
	rec = e.do(t, http.MethodPost, "/admin/users", admin, map[string]any{
		"username": "student1", "password": "pw", "role": "student",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d, body %s", rec.Code, rec.Body.String())
	}
	var student model.User
	decodeData(t, rec, &student)

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/admin/teams/%d/members", team.ID), admin,
		map[string]any{"userId": student.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("add member: status %d, body %s", rec.Code, rec.Body.String())
	}
	var updated model.Team
	decodeData(t, rec, &updated)
	if len(updated.Members) != 1 || updated.Members[0].User.ID != student.ID {
		t.Fatalf("unexpected members: %+v", updated.Members)
	}

	// The primary team lookup now sees the member.
	rec = e.do(t, http.MethodGet, fmt.Sprintf("/teams/%d", team.ID), admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get team: status %d, body %s", rec.Code, rec.Body.String())
	}
	var fetched model.Team
	decodeData(t, rec, &fetched)
	if len(fetched.Members) != 1 {
		t.Fatalf("expected 1 member via /teams, got %d", len(fetched.Members))
	}

	// So does the users-by-team fallback, via the mirrored team_id.
	rec = e.do(t, http.MethodGet, fmt.Sprintf("/users/byteam/%d", team.ID), admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("users by team: status %d, body %s", rec.Code, rec.Body.String())
	}
	var users []model.User
	decodeData(t, rec, &users)
	if len(users) != 1 || users[0].ID != student.ID {
		t.Fatalf("expected mirrored membership, got %+v", users)
	}

	rec = e.do(t, http.MethodGet, "/admin/teams", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list teams: status %d", rec.Code)
	}
	var teams []model.Team
	decodeData(t, rec, &teams)
	if len(teams) != 1 {
		t.Fatalf("expected 1 team, got %d", len(teams))
	}
}

func TestAdminCreateUserWithTeamSyncsMembership(t *testing.T) {
	e := newTestEnv(t)
	admin := e.loginAs(t, "admin", model.UserRoleAdmin)

	teamID, err := e.store.CreateTeam("alpha")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	rec := e.do(t, http.MethodPost, "/admin/users", admin, map[string]any{
		"username": "student1", "password": "pw", "role": "student", "teamId": teamID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d, body %s", rec.Code, rec.Body.String())
	}
	var student model.User
	decodeData(t, rec, &student)

	// The assignment must land in team_members, not just users.team_id.
	team, err := e.store.GetTeam(teamID)
	if err != nil || team == nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if len(team.Members) != 1 || team.Members[0].User.ID != student.ID {
		t.Fatalf("expected user in team_members, got %+v", team.Members)
	}

	// Unknown team is rejected cleanly.
	rec = e.do(t, http.MethodPost, "/admin/users", admin, map[string]any{
		"username": "student2", "password": "pw", "role": "student", "teamId": 9999,
	})
	if rec.Code == http.StatusCreated {
		t.Fatalf("expected failure for unknown team, got %d", rec.Code)
	}
}

func TestTeamEndpointsRequireRole(t *testing.T) {
	e := newTestEnv(t)
	student := e.loginAs(t, "student", model.UserRoleStudent)

	rec := e.do(t, http.MethodPost, "/admin/teams", student, map[string]any{"name": "x"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("student create team: status %d, want 403", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/admin/teams", "", map[string]any{"name": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create team: status %d, want 401", rec.Code)
	}
}

func TestQuizFromRepoRejectsInvalidURL(t *testing.T) {
	e := newTestEnv(t)
	tutor := e.loginAs(t, "tutor", model.UserRoleTutor)

	for _, repoURL := range []string{"", "not a url"} {
		rec := e.do(t, http.MethodPost, "/quiz/from-repo", tutor, map[string]any{"repoUrl": repoURL})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("repoUrl %q: status %d, want 400", repoURL, rec.Code)
		}
	}
}
