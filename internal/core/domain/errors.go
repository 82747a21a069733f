package domain

import "errors"

// ErrorKind groups coded errors by how a caller should react to them
type ErrorKind string

const (
	KindInput          ErrorKind = "input"          // Caller sent something malformed
	KindConflict       ErrorKind = "conflict"       // Uniqueness violated
	KindAuthentication ErrorKind = "authentication" // Credentials rejected
	KindAuthorization  ErrorKind = "authorization"  // Token does not grant access
)

// Error is a failure with a stable code that clients can switch on.
// Values are compared by identity, so use errors.Is against the sentinels below.
type Error struct {
	Code    string    `json:"code"`
	Kind    ErrorKind `json:"-"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(code string, kind ErrorKind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// Signup errors
var (
	ErrDuplicateContact = newError("SGR-001", KindConflict, "This contact number is already registered! Try other contact number.")
	ErrInvalidEmail     = newError("SGR-002", KindInput, "Invalid email-id format!")
	ErrInvalidContact   = newError("SGR-003", KindInput, "Invalid contact number!")
	ErrWeakPassword     = newError("SGR-004", KindInput, "Weak password!")
	ErrMissingField     = newError("SGR-005", KindInput, "Except last name all fields should be filled")

	// ErrDuplicateEmail is only raised by storage uniqueness, signup never checks email up front
	ErrDuplicateEmail = newError("SGR-006", KindConflict, "This email-id is already registered! Try other email-id.")
)

// Authentication errors
var (
	ErrUnknownContact = newError("ATH-001", KindAuthentication, "This contact number has not been registered!")
	ErrBadCredentials = newError("ATH-002", KindAuthentication, "Invalid Credentials")
)

// Session errors, reported in this order: existence, logout, expiry
var (
	ErrNotLoggedIn      = newError("ATHR-001", KindAuthorization, "Customer is not Logged in.")
	ErrAlreadyLoggedOut = newError("ATHR-002", KindAuthorization, "Customer is logged out. Log in again to access this endpoint.")
	ErrSessionExpired   = newError("ATHR-003", KindAuthorization, "Your session is expired. Log in again to access this endpoint.")
)

// Password change errors
var (
	ErrWeakNewPassword  = newError("UCR-001", KindInput, "Weak password!")
	ErrWrongOldPassword = newError("UCR-004", KindInput, "Incorrect old password!")
)

// Storage errors - not coded, adapters return these and services translate
var (
	// ErrNotFound indicates the requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrLockNotAcquired indicates a named lock is held elsewhere
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// CodeOf returns the stable code carried by err, or "" when err is not coded.
func CodeOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}
