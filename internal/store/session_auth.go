package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/forkina/evaluator/internal/model"
)

// Auth sessions are opaque bearer tokens carried in a cookie. Tutors tend
// to run evaluations in one sitting, so a day is plenty.
const authSessionTTL = 24 * time.Hour

// CreateAuthSession mints a fresh token for the user and persists it.
func (s *Store) CreateAuthSession(userID int64) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	issued := time.Now()
	if _, err := s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, issued, issued.Add(authSessionTTL),
	); err != nil {
		return "", fmt.Errorf("storing auth session: %w", err)
	}
	return token, nil
}

// GetAuthSession resolves a token to its session. A nil session with a nil
// error means the token is unknown or no longer valid; expired rows are
// reaped on the way out.
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT id, user_id, created_at, expires_at FROM auth_sessions WHERE id = ?`, token,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("looking up auth session: %w", err)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		_ = s.DeleteAuthSession(token)
		return nil, nil
	}
	return &sess, nil
}

// DeleteAuthSession invalidates a token. Deleting an unknown token is not
// an error, so logout is idempotent.
func (s *Store) DeleteAuthSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions sweeps out every session past its expiry, for the
// periodic janitor in the server loop.
func (s *Store) CleanupExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	return err
}

// newSessionToken returns 32 bytes of crypto randomness, hex encoded.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
