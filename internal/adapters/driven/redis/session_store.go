package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

const (
	// Key prefixes for Redis
	sessionPrefix      = "identity:session:"
	sessionTokenPrefix = "identity:session:token:"
)

// Hash fields of a stored session
const (
	fieldID         = "id"
	fieldCustomerID = "customer_id"
	fieldToken      = "token"
	fieldIssuedAt   = "issued_at"
	fieldExpiresAt  = "expires_at"
	fieldLogoutAt   = "logout_at"
)

// SessionStore implements driven.SessionStore using Redis.
// Each session is a hash plus a token index key. Keys carry no TTL:
// expiry is computed from expires_at, and records are kept for audit.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// createScript writes the hash and the token index only if neither exists
var createScript = redis.NewScript(`
	if redis.call("exists", KEYS[1]) == 1 or redis.call("exists", KEYS[2]) == 1 then
		return 0
	end
	redis.call("hset", KEYS[1], "id", ARGV[1], "customer_id", ARGV[2], "token", ARGV[3], "issued_at", ARGV[4], "expires_at", ARGV[5])
	redis.call("set", KEYS[2], ARGV[1])
	return 1
`)

// logoutScript sets logout_at once; -1 when missing, 0 when already set
var logoutScript = redis.NewScript(`
	if redis.call("exists", KEYS[1]) == 0 then
		return -1
	end
	return redis.call("hsetnx", KEYS[1], "logout_at", ARGV[1])
`)

// Create stores a new session
func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	created, err := createScript.Run(ctx, s.client,
		[]string{sessionPrefix + session.ID, sessionTokenPrefix + session.Token},
		session.ID,
		session.CustomerID,
		session.Token,
		formatTime(session.IssuedAt),
		formatTime(session.ExpiresAt),
	).Int()
	if err != nil {
		return oops.Code("SESSION_INSERT_FAILED").With("session_id", session.ID).Wrap(err)
	}
	if created == 0 {
		return oops.Code("SESSION_EXISTS").With("session_id", session.ID).Errorf("session id or token already stored")
	}
	return nil
}

// GetByToken retrieves a session by token value
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	id, err := s.client.Get(ctx, sessionTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOOKUP_FAILED").Wrap(err)
	}
	return s.get(ctx, id)
}

// Update sets logout_at with HSETNX so that only the first logout lands
func (s *SessionStore) Update(ctx context.Context, session *domain.Session) error {
	if session.LogoutAt == nil {
		return oops.Code("SESSION_UPDATE_INVALID").With("session_id", session.ID).Errorf("session update without logout time")
	}

	result, err := logoutScript.Run(ctx, s.client,
		[]string{sessionPrefix + session.ID},
		formatTime(*session.LogoutAt),
	).Int()
	if err != nil {
		return oops.Code("SESSION_UPDATE_FAILED").With("session_id", session.ID).Wrap(err)
	}

	switch result {
	case -1:
		return domain.ErrNotFound
	case 0:
		return domain.ErrAlreadyLoggedOut
	default:
		return nil
	}
}

func (s *SessionStore) get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionPrefix+id).Result()
	if err != nil {
		return nil, oops.Code("SESSION_LOOKUP_FAILED").With("session_id", id).Wrap(err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeSession(fields)
}

func decodeSession(fields map[string]string) (*domain.Session, error) {
	session := &domain.Session{
		ID:         fields[fieldID],
		CustomerID: fields[fieldCustomerID],
		Token:      fields[fieldToken],
	}

	var err error
	if session.IssuedAt, err = parseTime(fields[fieldIssuedAt]); err != nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").With("session_id", session.ID).Wrap(err)
	}
	if session.ExpiresAt, err = parseTime(fields[fieldExpiresAt]); err != nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").With("session_id", session.ID).Wrap(err)
	}
	if raw, ok := fields[fieldLogoutAt]; ok {
		at, err := parseTime(raw)
		if err != nil {
			return nil, oops.Code("SESSION_DECODE_FAILED").With("session_id", session.ID).Wrap(err)
		}
		session.LogoutAt = &at
	}
	return session, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
