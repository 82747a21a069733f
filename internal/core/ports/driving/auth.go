package driving

import (
	"context"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
)

// AuthService handles the session lifecycle of customers
type AuthService interface {
	// Authenticate checks credentials and opens a new session
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// Validate resolves a token to its customer if the session is live
	Validate(ctx context.Context, token string) (*domain.Customer, error)

	// Logout closes the session behind token; a session closes only once
	Logout(ctx context.Context, token string) (*domain.Session, error)

	// ChangePassword replaces the password after checking the old one
	ChangePassword(ctx context.Context, customerID string, req domain.ChangePasswordRequest) (*domain.Customer, error)
}
