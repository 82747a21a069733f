package services

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/policy"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driving"
)

// Ensure customerService implements CustomerService
var _ driving.CustomerService = (*customerService)(nil)

// customerService implements the CustomerService interface
type customerService struct {
	customers driven.CustomerStore
	crypto    driven.PasswordCrypto
	options
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customers driven.CustomerStore,
	crypto driven.PasswordCrypto,
	opts ...Option,
) driving.CustomerService {
	return &customerService{
		customers: customers,
		crypto:    crypto,
		options:   buildOptions(opts),
	}
}

// Register validates a signup and stores the customer.
// Checks run in a fixed order: duplicate contact, missing fields, email
// format, contact format, password strength.
func (s *customerService) Register(ctx context.Context, req driving.RegisterRequest) (*domain.Customer, error) {
	release, err := s.lockContact(ctx, req.ContactNumber)
	if err != nil {
		return nil, err
	}
	defer release()

	_, err = s.customers.GetByContactNumber(ctx, req.ContactNumber)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicateContact
	case !errors.Is(err, domain.ErrNotFound):
		return nil, storeError("CUSTOMER_LOOKUP_FAILED", err)
	}

	if req.FirstName == "" || req.Email == "" || req.ContactNumber == "" || req.Password == "" {
		return nil, domain.ErrMissingField
	}
	if err := policy.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := policy.ValidateContactNumber(req.ContactNumber); err != nil {
		return nil, err
	}
	if err := policy.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	salt, digest, err := s.crypto.HashNewPassword(req.Password)
	if err != nil {
		return nil, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}

	now := s.timestamp()
	customer := &domain.Customer{
		ID:             ulid.Make().String(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		ContactNumber:  req.ContactNumber,
		PasswordDigest: digest,
		PasswordSalt:   salt,
		Address:        req.Address,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, storeError("CUSTOMER_CREATE_FAILED", err, "customer_id", customer.ID)
	}

	s.logger.Info("customer registered", "customer_id", customer.ID)
	return customer, nil
}

// Get retrieves a customer by ID
func (s *customerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.customers.Get(ctx, id)
	if err != nil {
		return nil, storeError("CUSTOMER_LOOKUP_FAILED", err, "customer_id", id)
	}
	return customer, nil
}

// UpdateProfile stores the customer's non-credential fields without
// validating them. The stored record is returned.
func (s *customerService) UpdateProfile(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	customer.UpdatedAt = s.timestamp()
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, storeError("CUSTOMER_UPDATE_FAILED", err, "customer_id", customer.ID)
	}
	return s.Get(ctx, customer.ID)
}

// lockContact takes the signup lock for a contact number, waiting up to
// lockWait for a concurrent signup of the same number to finish.
func (s *customerService) lockContact(ctx context.Context, contactNumber string) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}

	name := "signup:" + contactNumber
	backoff := retry.WithMaxDuration(s.lockWait, retry.NewConstant(25*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		acquired, err := s.lock.Acquire(ctx, name, s.lockTTL)
		if err != nil {
			return err
		}
		if !acquired {
			return retry.RetryableError(domain.ErrLockNotAcquired)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("SIGNUP_LOCK_FAILED").With("lock", name).Wrap(err)
	}

	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
			s.logger.Warn("failed to release signup lock", "lock", name, "error", err)
		}
	}, nil
}
