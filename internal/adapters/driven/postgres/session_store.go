package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore implements driven.SessionStore using PostgreSQL.
// Rows are never deleted.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a session
func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO customer_sessions (id, customer_id, token, issued_at, expires_at, logout_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.CustomerID,
		session.Token,
		session.IssuedAt,
		session.ExpiresAt,
		NullTime(session.LogoutAt),
	)
	if err != nil {
		return oops.Code("SESSION_INSERT_FAILED").With("session_id", session.ID).Wrap(err)
	}
	return nil
}

// GetByToken retrieves a session by token value
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT id, customer_id, token, issued_at, expires_at, logout_at
		FROM customer_sessions
		WHERE token = $1
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, token))
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Update stamps logout_at under a row lock. A row that already has a
// logout time is left alone and reported as domain.ErrAlreadyLoggedOut.
func (s *SessionStore) Update(ctx context.Context, session *domain.Session) error {
	if session.LogoutAt == nil {
		return oops.Code("SESSION_UPDATE_INVALID").With("session_id", session.ID).Errorf("session update without logout time")
	}
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var logoutAt sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT logout_at FROM customer_sessions WHERE id = $1 FOR UPDATE`,
			session.ID,
		).Scan(&logoutAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return oops.Code("SESSION_LOCK_FAILED").With("session_id", session.ID).Wrap(err)
		}
		if logoutAt.Valid {
			return domain.ErrAlreadyLoggedOut
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE customer_sessions SET logout_at = $2 WHERE id = $1`,
			session.ID,
			NullTime(session.LogoutAt),
		); err != nil {
			return oops.Code("SESSION_UPDATE_FAILED").With("session_id", session.ID).Wrap(err)
		}
		return nil
	})
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var (
		session  domain.Session
		logoutAt sql.NullTime
	)
	err := row.Scan(
		&session.ID,
		&session.CustomerID,
		&session.Token,
		&session.IssuedAt,
		&session.ExpiresAt,
		&logoutAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("SESSION_SCAN_FAILED").Wrap(err)
	}

	session.IssuedAt = session.IssuedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.LogoutAt = TimePtr(logoutAt)
	return &session, nil
}
