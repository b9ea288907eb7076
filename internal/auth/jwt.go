// Package auth provides password hashing, JWT issuance/validation and the
// request authorizer middleware.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/login with email + password
//  2. Server verifies the bcrypt hash and issues a JWT (1 hour TTL)
//  3. Client sends it back as "Authorization: Bearer <jwt>" on every call
//  4. RequireAuth validates it and stores the email in the request context
//
// WHY JWT?
// The token is self-contained: subject and expiry are inside, and the HMAC
// signature proves we minted it. Validation is pure computation (no DB, no
// session table), so it can run on every request on every replica.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// TokenTTL is the fixed lifetime of an access token.
const TokenTTL = time.Hour

const issuer = "tasklist"

// minSecretLength is the shortest signing key NewTokenService accepts.
const minSecretLength = 16

var (
	// ErrTokenExpired means the signature was fine but exp is in the past.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenMalformed covers everything else: bad signature, wrong
	// algorithm, wrong issuer, missing claims, not a JWT at all.
	ErrTokenMalformed = errors.New("auth: token malformed")
	// ErrPasswordTooLong is returned by Hash for inputs over 72 bytes.
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")
)

// TokenService handles JWT creation and validation.
//
// The secret is loaded once at startup (config.Load) and never changes
// afterwards, so a TokenService is safe for concurrent use.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// Refusing a short or empty secret here is what makes the server fail at
// startup instead of minting weak tokens.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// claims is the JWT payload. "sub" carries the user's email.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a token for email, valid for TokenTTL.
//
// Every token also gets a unique "jti" (xid) so two logins in the same second
// never produce byte-identical tokens.
func (s *TokenService) Issue(email string) (string, error) {
	if email == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}

	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token and returns the email in "sub".
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid for our secret
//   - Algorithm is HS256 (blocks "alg":"none" and RS/HS confusion)
//   - Issuer is ours
//   - exp is present and in the future (per s.now)
//
// Errors are ErrTokenExpired or ErrTokenMalformed, nothing else.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", ErrTokenMalformed
	}

	return c.Subject, nil
}
