package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/policy"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface.
// It keeps no mutable state; every decision is made from stored records.
type authService struct {
	customers driven.CustomerStore
	sessions  driven.SessionStore
	crypto    driven.PasswordCrypto
	tokens    driven.TokenIssuer
	options
}

// NewAuthService creates a new AuthService
func NewAuthService(
	customers driven.CustomerStore,
	sessions driven.SessionStore,
	crypto driven.PasswordCrypto,
	tokens driven.TokenIssuer,
	opts ...Option,
) driving.AuthService {
	return &authService{
		customers: customers,
		sessions:  sessions,
		crypto:    crypto,
		tokens:    tokens,
		options:   buildOptions(opts),
	}
}

// Authenticate checks credentials and opens a session valid for
// domain.SessionValidity
func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	customer, err := s.customers.GetByContactNumber(ctx, req.ContactNumber)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnknownContact
	}
	if err != nil {
		return nil, storeError("CUSTOMER_LOOKUP_FAILED", err)
	}

	if !s.crypto.Verify(req.Password, customer.PasswordSalt, customer.PasswordDigest) {
		s.logger.Info("authentication rejected", "customer_id", customer.ID)
		return nil, domain.ErrBadCredentials
	}

	now := s.timestamp()
	session := &domain.Session{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(domain.SessionValidity),
	}

	token, err := s.tokens.Issue(&domain.TokenClaims{
		SessionID:  session.ID,
		CustomerID: customer.ID,
		IssuedAt:   session.IssuedAt,
		ExpiresAt:  session.ExpiresAt,
	}, []byte(customer.PasswordDigest))
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("session_id", session.ID).Wrap(err)
	}
	session.Token = token

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, storeError("SESSION_CREATE_FAILED", err, "session_id", session.ID)
	}

	s.logger.Info("customer authenticated", "customer_id", customer.ID, "session_id", session.ID)
	return &domain.LoginResponse{
		Session:  session,
		Customer: customer.ToSummary(),
	}, nil
}

// Validate returns the customer behind a live session
func (s *authService) Validate(ctx context.Context, token string) (*domain.Customer, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Get(ctx, session.CustomerID)
	if err != nil {
		return nil, oops.Code("SESSION_CUSTOMER_MISSING").
			With("session_id", session.ID, "customer_id", session.CustomerID).
			Wrap(err)
	}
	return customer, nil
}

// Logout stamps the session's logout time. Only one logout per session can
// succeed; the loser of a race sees domain.ErrAlreadyLoggedOut.
func (s *authService) Logout(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	session.LogoutAt = &now

	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotLoggedIn
		}
		return nil, storeError("SESSION_UPDATE_FAILED", err, "session_id", session.ID)
	}

	s.logger.Info("customer logged out", "customer_id", session.CustomerID, "session_id", session.ID)
	return session, nil
}

// ChangePassword checks the new password's strength first, then the old
// password, and stores a fresh salt and digest.
// Sessions opened before the change stay valid.
func (s *authService) ChangePassword(ctx context.Context, customerID string, req domain.ChangePasswordRequest) (*domain.Customer, error) {
	if err := policy.ValidateNewPasswordStrength(req.NewPassword); err != nil {
		return nil, err
	}

	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, storeError("CUSTOMER_LOOKUP_FAILED", err, "customer_id", customerID)
	}

	if !s.crypto.Verify(req.OldPassword, customer.PasswordSalt, customer.PasswordDigest) {
		return nil, domain.ErrWrongOldPassword
	}

	salt, digest, err := s.crypto.HashNewPassword(req.NewPassword)
	if err != nil {
		return nil, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	customer.PasswordSalt = salt
	customer.PasswordDigest = digest
	customer.UpdatedAt = s.timestamp()

	if err := s.customers.UpdatePassword(ctx, customer); err != nil {
		return nil, storeError("CUSTOMER_UPDATE_FAILED", err, "customer_id", customerID)
	}

	s.logger.Info("customer password changed", "customer_id", customerID)
	return customer, nil
}

// liveSession loads the session for token and checks, in order, that it
// exists, is not logged out and has not expired.
func (s *authService) liveSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrNotLoggedIn
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotLoggedIn
	}
	if err != nil {
		return nil, storeError("SESSION_LOOKUP_FAILED", err)
	}

	if err := session.Err(s.now()); err != nil {
		return nil, err
	}
	return session, nil
}
