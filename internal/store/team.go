package store

import (
	"database/sql"

	"github.com/forkina/evaluator/internal/model"
)

// CreateTeam inserts a team.
func (s *Store) CreateTeam(name string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO teams (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddTeamMember links a user to a team and mirrors the link onto the user
// row so the users-by-team fallback lookup stays consistent.
func (s *Store) AddTeamMember(teamID, userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO team_members (team_id, user_id) VALUES (?, ?)`, teamID, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE users SET team_id = ? WHERE id = ?`, teamID, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetTeam returns a team with its members, or nil when not found.
func (s *Store) GetTeam(id int64) (*model.Team, error) {
	var t model.Team
	err := s.db.QueryRow(`SELECT id, name FROM teams WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT u.id, u.username, u.first_name, u.last_name, u.password_hash, u.role, u.team_id, u.active, u.created_at
		 FROM team_members tm JOIN users u ON u.id = tm.user_id
		 WHERE tm.team_id = ? ORDER BY u.id`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
		t.Members = append(t.Members, model.TeamMember{User: u})
	}
	return &t, rows.Err()
}

// ListTeams returns all teams without member details.
func (s *Store) ListTeams() ([]model.Team, error) {
	rows, err := s.db.Query(`SELECT id, name FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teams []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
