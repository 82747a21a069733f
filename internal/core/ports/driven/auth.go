package driven

import "github.com/custodia-labs/foodorder-identity/internal/core/domain"

// PasswordCrypto handles salting, hashing and verification of passwords.
// Implementations must be safe for concurrent use.
type PasswordCrypto interface {
	// GenerateSalt returns fresh random salt material
	GenerateSalt() (string, error)

	// Hash derives a digest from password and salt; same inputs give the same digest
	Hash(password, salt string) (string, error)

	// HashNewPassword generates a salt and hashes password with it
	HashNewPassword(password string) (salt, digest string, err error)

	// Verify recomputes the digest and compares it in constant time.
	// Malformed digests never verify.
	Verify(password, salt, digest string) bool
}

// TokenIssuer signs session tokens.
// This does NOT handle storage - the stored session is the source of truth.
type TokenIssuer interface {
	// Issue signs claims with a key derived from secret and the session ID
	Issue(claims *domain.TokenClaims, secret []byte) (string, error)
}
