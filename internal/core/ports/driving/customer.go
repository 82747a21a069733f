package driving

import (
	"context"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
)

// RegisterRequest represents a signup
type RegisterRequest struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email"`
	ContactNumber string          `json:"contact_number"`
	Password      string          `json:"password"`
	Address       *domain.Address `json:"address,omitempty"`
}

// UpdateProfileRequest represents a profile edit by the customer
type UpdateProfileRequest struct {
	FirstName *string         `json:"first_name,omitempty"`
	LastName  *string         `json:"last_name,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Address   *domain.Address `json:"address,omitempty"`
}

// Apply copies the set fields onto customer
func (r UpdateProfileRequest) Apply(customer *domain.Customer) {
	if r.FirstName != nil {
		customer.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		customer.LastName = *r.LastName
	}
	if r.Email != nil {
		customer.Email = *r.Email
	}
	if r.Address != nil {
		customer.Address = r.Address
	}
}

// CustomerService manages customer accounts
type CustomerService interface {
	// Register validates and stores a new customer
	Register(ctx context.Context, req RegisterRequest) (*domain.Customer, error)

	// Get retrieves a customer by ID
	Get(ctx context.Context, id string) (*domain.Customer, error)

	// UpdateProfile stores non-credential fields as given
	UpdateProfile(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}
