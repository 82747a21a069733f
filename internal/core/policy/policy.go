// Package policy holds the input rules customers must satisfy at signup and
// when changing their password. Every function is pure and safe for
// concurrent use; the compiled patterns below are never mutated after init.
package policy

import (
	"regexp"
	"unicode/utf8"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
)

var (
	emailPattern   = regexp.MustCompile("(?i)^[a-zA-Z0-9_!#$%&’*+/=?`{|}~^.-]+@[a-zA-Z0-9.-]+$")
	contactPattern = regexp.MustCompile(`^[0-9]{10}$`)

	digit = regexp.MustCompile(`[0-9]`)
	upper = regexp.MustCompile(`[A-Z]`)
	lower = regexp.MustCompile(`[a-z]`)

	// signup symbols
	signupSymbol = regexp.MustCompile(`[@#$%]`)
	// any character except the line terminators \n \r U+0085 U+2028 U+2029
	signupLength = regexp.MustCompile(`^[^\n\r\x{85}\x{2028}\x{2029}]{3,10}$`)

	// "&-+" is a range here: & ' ( ) * +
	changeSymbol = regexp.MustCompile(`[@#$%^&-+=()]`)
	whitespace   = regexp.MustCompile(`[ \t\n\x0B\f\r]`)
)

// rule is a single requirement a value must meet
type rule func(string) bool

func contains(re *regexp.Regexp) rule {
	return re.MatchString
}

func satisfies(s string, rules ...rule) bool {
	for _, r := range rules {
		if !r(s) {
			return false
		}
	}
	return true
}

// ValidateEmail checks the address shape: local part, '@', domain.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return domain.ErrInvalidEmail
	}
	return nil
}

// ValidateContactNumber requires exactly ten ASCII digits.
func ValidateContactNumber(contact string) error {
	if !contactPattern.MatchString(contact) {
		return domain.ErrInvalidContact
	}
	return nil
}

// ValidatePasswordStrength is the signup rule: 3 to 10 characters with at
// least one digit, one upper-case letter, one lower-case letter and one of @#$%.
func ValidatePasswordStrength(password string) error {
	if !satisfies(password,
		contains(signupLength),
		contains(digit),
		contains(upper),
		contains(lower),
		contains(signupSymbol),
	) {
		return domain.ErrWeakPassword
	}
	return nil
}

// ValidateNewPasswordStrength is the password-change rule: at least 8
// characters, one digit, one upper-case letter, one symbol, no whitespace.
// Unlike the signup rule, lower case is optional and
// there is no upper length bound.
func ValidateNewPasswordStrength(password string) error {
	if !satisfies(password,
		func(s string) bool { return utf8.RuneCountInString(s) >= 8 },
		func(s string) bool { return !whitespace.MatchString(s) },
		contains(digit),
		contains(upper),
		contains(changeSymbol),
	) {
		return domain.ErrWeakNewPassword
	}
	return nil
}
