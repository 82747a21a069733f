package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
	"golang.org/x/crypto/hkdf"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven"
)

// Ensure TokenIssuer implements driven.TokenIssuer
var _ driven.TokenIssuer = (*TokenIssuer)(nil)

// DefaultIssuer is the iss claim when none is configured
const DefaultIssuer = "foodorder-identity"

const signingKeyLen = 32

// TokenIssuer signs session tokens as HS256 JWTs.
//
// Each session gets its own HMAC key, derived with HKDF-SHA256 from the
// customer's password digest (secret), the session ID (salt) and the issuer
// name (info). Knowing one session's key reveals nothing about another's.
type TokenIssuer struct {
	issuer string
}

// NewTokenIssuer creates a TokenIssuer for the given iss claim
func NewTokenIssuer(issuer string) *TokenIssuer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &TokenIssuer{issuer: issuer}
}

// Issue creates a signed JWT from domain claims
func (i *TokenIssuer) Issue(claims *domain.TokenClaims, secret []byte) (string, error) {
	if claims.SessionID == "" {
		return "", oops.Code("TOKEN_SIGN_FAILED").Errorf("session id is required")
	}

	key, err := i.signingKey(secret, claims.SessionID)
	if err != nil {
		return "", err
	}

	rc := jwt.RegisteredClaims{
		ID:        claims.SessionID,
		Subject:   claims.CustomerID,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("session_id", claims.SessionID).Wrap(err)
	}
	return signed, nil
}

// Parse verifies the token signature against secret and returns its claims.
// Expiry is not checked here; the stored session decides liveness.
func (i *TokenIssuer) Parse(tokenString string, secret []byte) (*domain.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		rc, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok || rc.ID == "" {
			return nil, fmt.Errorf("token has no session id")
		}
		return i.signingKey(secret, rc.ID)
	}, jwt.WithoutClaimsValidation(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID").Wrap(err)
	}

	rc, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || rc.IssuedAt == nil || rc.ExpiresAt == nil {
		return nil, oops.Code("TOKEN_INVALID").Errorf("invalid token claims")
	}
	if rc.Issuer != i.issuer {
		return nil, oops.Code("TOKEN_INVALID").Errorf("unexpected issuer: %s", rc.Issuer)
	}

	return &domain.TokenClaims{
		SessionID:  rc.ID,
		CustomerID: rc.Subject,
		IssuedAt:   rc.IssuedAt.Time,
		ExpiresAt:  rc.ExpiresAt.Time,
	}, nil
}

func (i *TokenIssuer) signingKey(secret []byte, sessionID string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SIGN_FAILED").Errorf("signing secret is empty")
	}
	key := make([]byte, signingKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, []byte(sessionID), []byte(i.issuer)), key); err != nil {
		return nil, oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return key, nil
}
