package driven

import (
	"context"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
)

// CustomerStore handles customer persistence (PostgreSQL)
type CustomerStore interface {
	// Create inserts a customer. Uniqueness of contact number and email is
	// enforced here too: violations return domain.ErrDuplicateContact or
	// domain.ErrDuplicateEmail.
	Create(ctx context.Context, customer *domain.Customer) error

	// Get retrieves a customer by ID
	Get(ctx context.Context, id string) (*domain.Customer, error)

	// GetByContactNumber retrieves a customer by contact number
	GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Customer, error)

	// Update persists profile fields. Credentials are left untouched.
	Update(ctx context.Context, customer *domain.Customer) error

	// UpdatePassword persists a new digest and salt
	UpdatePassword(ctx context.Context, customer *domain.Customer) error
}
