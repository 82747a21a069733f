package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSessionStateAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	loggedOut := now.Add(-time.Hour)

	tests := []struct {
		name      string
		expiresAt time.Time
		logoutAt  *time.Time
		expected  SessionState
		err       error
	}{
		{
			name:      "active session",
			expiresAt: now.Add(time.Hour),
			expected:  SessionActive,
		},
		{
			name:      "expired session",
			expiresAt: now.Add(-time.Hour),
			expected:  SessionExpired,
			err:       ErrSessionExpired,
		},
		{
			name:      "expiry equal to now is expired",
			expiresAt: now,
			expected:  SessionExpired,
			err:       ErrSessionExpired,
		},
		{
			name:      "one nanosecond before expiry is active",
			expiresAt: now.Add(time.Nanosecond),
			expected:  SessionActive,
		},
		{
			name:      "logged out session",
			expiresAt: now.Add(time.Hour),
			logoutAt:  &loggedOut,
			expected:  SessionLoggedOut,
			err:       ErrAlreadyLoggedOut,
		},
		{
			name:      "logged out and expired reports logout",
			expiresAt: now.Add(-time.Minute),
			logoutAt:  &loggedOut,
			expected:  SessionLoggedOut,
			err:       ErrAlreadyLoggedOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &Session{ExpiresAt: tt.expiresAt, LogoutAt: tt.logoutAt}
			if got := session.StateAt(now); got != tt.expected {
				t.Errorf("expected StateAt() = %s, got %s", tt.expected, got)
			}
			if err := session.Err(now); !errors.Is(err, tt.err) {
				t.Errorf("expected Err() = %v, got %v", tt.err, err)
			}
		})
	}
}

func TestSessionValidity(t *testing.T) {
	if SessionValidity != 8*time.Hour {
		t.Errorf("expected 8h session validity, got %s", SessionValidity)
	}
}

func TestCustomerToSummary(t *testing.T) {
	c := &Customer{
		ID:             "01J0000000000000000000000",
		FirstName:      "Asha",
		LastName:       "Rao",
		Email:          "asha@example.com",
		ContactNumber:  "9876543210",
		PasswordDigest: "digest",
		PasswordSalt:   "salt",
		Address:        &Address{City: "Pune"},
	}

	s := c.ToSummary()
	if s.ID != c.ID || s.Email != c.Email || s.ContactNumber != c.ContactNumber {
		t.Errorf("summary lost identity fields: %+v", s)
	}
	if s.Address == nil || s.Address.City != "Pune" {
		t.Error("expected address to carry over")
	}
}
