package domain

import "time"

// SessionValidity is how long a session stays usable after login.
// It is policy, not configuration.
const SessionValidity = 8 * time.Hour

// SessionState is the liveness of a session at a given instant
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionLoggedOut SessionState = "logged_out"
	SessionExpired   SessionState = "expired"
)

// Session represents one login of a customer.
// ExpiresAt is fixed at creation and LogoutAt is set at most once.
type Session struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Token      string     `json:"token"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LogoutAt   *time.Time `json:"logout_at,omitempty"`
}

// StateAt computes liveness at now. Logout wins over expiry, and a session
// whose expiry equals now is already expired.
func (s *Session) StateAt(now time.Time) SessionState {
	if s.LogoutAt != nil {
		return SessionLoggedOut
	}
	if !s.ExpiresAt.After(now) {
		return SessionExpired
	}
	return SessionActive
}

// Err maps the session state at now to its coded error, nil when active
func (s *Session) Err(now time.Time) error {
	switch s.StateAt(now) {
	case SessionLoggedOut:
		return ErrAlreadyLoggedOut
	case SessionExpired:
		return ErrSessionExpired
	default:
		return nil
	}
}

// AuthContext contains the authenticated customer for request context
type AuthContext struct {
	CustomerID string `json:"customer_id"`
	Token      string `json:"-"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	ContactNumber string `json:"contact_number"`
	Password      string `json:"password"`
}

// LoginResponse is returned after successful authentication
type LoginResponse struct {
	Session  *Session         `json:"session"`
	Customer *CustomerSummary `json:"customer"`
}

// TokenClaims represents the token payload
type TokenClaims struct {
	SessionID  string    `json:"jti"`
	CustomerID string    `json:"sub"`
	IssuedAt   time.Time `json:"iat"`
	ExpiresAt  time.Time `json:"exp"`
}

// ChangePasswordRequest represents a password change by an authenticated customer
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}
