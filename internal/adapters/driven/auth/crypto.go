package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"

	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
)

// Ensure PasswordCrypto implements driven.PasswordCrypto
var _ driven.PasswordCrypto = (*PasswordCrypto)(nil)

const (
	argon2Algorithm = "argon2id"
	argon2KeyLen    = 32

	// MaxMemory caps argon2id memory at 4 GiB, expressed in KiB
	MaxMemory = 4 * 1024 * 1024
)

// Params are the argon2id cost parameters
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
}

// Validate reports whether the cost can be used to hash and later verify.
// Verify rejects stored digests outside these bounds.
func (p Params) Validate() error {
	switch {
	case p.Time == 0:
		return oops.Code("INVALID_ARGON2_PARAMS").Errorf("argon2 time must be at least 1")
	case p.Threads == 0:
		return oops.Code("INVALID_ARGON2_PARAMS").Errorf("argon2 threads must be at least 1")
	case p.Memory == 0 || p.Memory > MaxMemory:
		return oops.Code("INVALID_ARGON2_PARAMS").Errorf("argon2 memory must be between 1 and %d KiB, got %d", MaxMemory, p.Memory)
	}
	return nil
}

// DefaultParams are the OWASP-recommended argon2id parameters
var DefaultParams = Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
}

// PasswordCrypto hashes passwords with argon2id.
//
// The salt is kept apart from the digest, so the digest only carries the
// algorithm, version and cost:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<key>
//
// Verify reads the cost from the digest, so raising the cost later does not
// invalidate digests already stored.
type PasswordCrypto struct {
	params Params
}

// NewPasswordCrypto creates a PasswordCrypto with DefaultParams
func NewPasswordCrypto() *PasswordCrypto {
	return &PasswordCrypto{params: DefaultParams}
}

// NewPasswordCryptoWithParams creates a PasswordCrypto with custom cost.
// Hash fails while params do not pass Params.Validate.
func NewPasswordCryptoWithParams(params Params) *PasswordCrypto {
	return &PasswordCrypto{params: params}
}

// GenerateSalt returns the 16 random bytes of a v4 UUID, base64 encoded
func (c *PasswordCrypto) GenerateSalt() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", oops.Code("SALT_GENERATION_FAILED").Wrap(err)
	}
	return base64.RawStdEncoding.EncodeToString(id[:]), nil
}

// Hash derives the digest of password under salt
func (c *PasswordCrypto) Hash(password, salt string) (string, error) {
	if err := c.params.Validate(); err != nil {
		return "", err
	}
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil || len(saltBytes) == 0 {
		return "", oops.Code("INVALID_SALT").Errorf("salt is not valid base64 material")
	}

	key := argon2.IDKey([]byte(password), saltBytes, c.params.Time, c.params.Memory, c.params.Threads, argon2KeyLen)
	return encodeDigest(c.params, key), nil
}

// HashNewPassword generates a salt and hashes password with it
func (c *PasswordCrypto) HashNewPassword(password string) (string, string, error) {
	salt, err := c.GenerateSalt()
	if err != nil {
		return "", "", err
	}
	digest, err := c.Hash(password, salt)
	if err != nil {
		return "", "", err
	}
	return salt, digest, nil
}

// Verify checks password against a stored salt and digest
func (c *PasswordCrypto) Verify(password, salt, digest string) bool {
	params, expected, err := decodeDigest(digest)
	if err != nil {
		return false
	}
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil || len(saltBytes) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(password), saltBytes, params.Time, params.Memory, params.Threads, uint32(len(expected)))
	return equalDigests(computed, expected)
}

// equalDigests compares in time independent of where the inputs differ
func equalDigests(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

func encodeDigest(p Params, key []byte) string {
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s",
		argon2Algorithm,
		argon2.Version,
		p.Memory,
		p.Time,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decodeDigest(digest string) (Params, []byte, error) {
	var p Params

	parts := strings.Split(digest, "$")
	if len(parts) != 5 || parts[0] != "" {
		return p, nil, oops.Code("INVALID_DIGEST").Errorf("invalid digest format")
	}
	if parts[1] != argon2Algorithm {
		return p, nil, oops.Code("INVALID_DIGEST").Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, oops.Code("INVALID_DIGEST").Wrap(err)
	}
	if version != argon2.Version {
		return p, nil, oops.Code("INVALID_DIGEST").Errorf("unsupported version: %d", version)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, oops.Code("INVALID_DIGEST").Wrap(err)
	}
	// Bound the cost so a tampered row cannot make Verify allocate without limit
	if threads > 255 {
		return p, nil, oops.Code("INVALID_DIGEST").Errorf("cost parameters out of range")
	}
	p.Threads = uint8(threads)
	if err := p.Validate(); err != nil {
		return p, nil, oops.Code("INVALID_DIGEST").Wrap(err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, oops.Code("INVALID_DIGEST").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return p, nil, oops.Code("INVALID_DIGEST").Errorf("invalid key length: %d", len(key))
	}

	return p, key, nil
}
