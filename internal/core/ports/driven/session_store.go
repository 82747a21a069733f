package driven

import (
	"context"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
)

// SessionStore handles session persistence (PostgreSQL or Redis).
// Sessions are never deleted; they form the login audit trail.
type SessionStore interface {
	// Create stores a new session. Token values are unique.
	Create(ctx context.Context, session *domain.Session) error

	// GetByToken retrieves a session by exact token value.
	// Returns domain.ErrNotFound when no session carries the token.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Update persists the session's LogoutAt as a conditional write.
	// Returns domain.ErrAlreadyLoggedOut if the stored session already has a
	// logout time, and domain.ErrNotFound if it does not exist. A session
	// without LogoutAt is rejected and nothing is written.
	Update(ctx context.Context, session *domain.Session) error
}
