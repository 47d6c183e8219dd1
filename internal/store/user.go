package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/forkina/evaluator/internal/model"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(u model.User) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO users (username, first_name, last_name, password_hash, role, team_id, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.FirstName, u.LastName, u.PasswordHash, u.Role, teamIDArg(u.TeamID), u.Active, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "username", u.Username, "role", u.Role)
	return id, nil
}

// GetUserByUsername returns a user by username, or nil.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	return s.getUser(`WHERE username = ?`, username)
}

// GetUserByID returns a user by ID, or nil.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	return s.getUser(`WHERE id = ?`, id)
}

func (s *Store) getUser(where string, arg any) (*model.User, error) {
	var (
		u      model.User
		teamID sql.NullInt64
	)
	err := s.db.QueryRow(
		`SELECT id, username, first_name, last_name, password_hash, role, team_id, active, created_at
		 FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &teamID, &u.Active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if teamID.Valid {
		u.TeamID = &teamID.Int64
	}
	return &u, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers() ([]model.User, error) {
	return s.listUsers(`ORDER BY id`)
}

// UsersByTeam returns the users whose team_id column points at the team.
// This is the fallback membership lookup; the primary path goes through
// the team_members table.
func (s *Store) UsersByTeam(teamID int64) ([]model.User, error) {
	return s.listUsers(`WHERE team_id = ? ORDER BY id`, teamID)
}

func (s *Store) listUsers(clause string, args ...any) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT id, username, first_name, last_name, password_hash, role, team_id, active, created_at
		 FROM users `+clause, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var (
			u      model.User
			teamID sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &teamID, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		if teamID.Valid {
			u.TeamID = &teamID.Int64
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ToggleUserActive flips the active flag on a user.
func (s *Store) ToggleUserActive(id int64) error {
	_, err := s.db.Exec(`UPDATE users SET active = NOT active WHERE id = ?`, id)
	return err
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func teamIDArg(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
