package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code string
		kind ErrorKind
	}{
		{"ErrDuplicateContact", ErrDuplicateContact, "SGR-001", KindConflict},
		{"ErrInvalidEmail", ErrInvalidEmail, "SGR-002", KindInput},
		{"ErrInvalidContact", ErrInvalidContact, "SGR-003", KindInput},
		{"ErrWeakPassword", ErrWeakPassword, "SGR-004", KindInput},
		{"ErrMissingField", ErrMissingField, "SGR-005", KindInput},
		{"ErrDuplicateEmail", ErrDuplicateEmail, "SGR-006", KindConflict},
		{"ErrUnknownContact", ErrUnknownContact, "ATH-001", KindAuthentication},
		{"ErrBadCredentials", ErrBadCredentials, "ATH-002", KindAuthentication},
		{"ErrNotLoggedIn", ErrNotLoggedIn, "ATHR-001", KindAuthorization},
		{"ErrAlreadyLoggedOut", ErrAlreadyLoggedOut, "ATHR-002", KindAuthorization},
		{"ErrSessionExpired", ErrSessionExpired, "ATHR-003", KindAuthorization},
		{"ErrWeakNewPassword", ErrWeakNewPassword, "UCR-001", KindInput},
		{"ErrWrongOldPassword", ErrWrongOldPassword, "UCR-004", KindInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, tt.err.Code)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("expected kind %q, got %q", tt.kind, tt.err.Kind)
			}
			if tt.err.Message == "" {
				t.Error("expected a message")
			}
			if tt.err.Error() != tt.code+": "+tt.err.Message {
				t.Errorf("unexpected Error() %q", tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrDuplicateContact, ErrInvalidEmail, ErrInvalidContact, ErrWeakPassword,
		ErrMissingField, ErrDuplicateEmail, ErrUnknownContact, ErrBadCredentials,
		ErrNotLoggedIn, ErrAlreadyLoggedOut, ErrSessionExpired, ErrWeakNewPassword,
		ErrWrongOldPassword, ErrNotFound, ErrLockNotAcquired,
	}

	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors %d and %d should be distinct: %v / %v", i, j, a, b)
			}
		}
	}
}

// Unknown contact and wrong password share a kind but must never share a code.
func TestAuthenticationErrorsDistinguishable(t *testing.T) {
	if ErrUnknownContact.Code == ErrBadCredentials.Code {
		t.Fatal("unknown contact and bad credentials must carry different codes")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("logout: %w", ErrAlreadyLoggedOut)

	if got := CodeOf(wrapped); got != "ATHR-002" {
		t.Errorf("expected ATHR-002, got %q", got)
	}
	if got := CodeOf(ErrNotFound); got != "" {
		t.Errorf("expected empty code for uncoded error, got %q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("expected empty code for nil, got %q", got)
	}
}
