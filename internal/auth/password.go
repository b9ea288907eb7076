// Package auth: password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which makes brute-forcing a stolen hash
// expensive. It also:
//   - Generates a random salt (two users with the same password get different hashes)
//   - Embeds the salt and cost in the output (no separate salt column needed)
//
// Hash format:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 iterations)
//	 version
package auth

import (
	"fmt"

	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production (~250ms per hash).
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected rather
// than silently truncated.
const maxPasswordBytes = 72

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: tests use
// cost 4 (the bcrypt minimum) and run in milliseconds.
type PasswordService struct {
	cost int

	// dummyHash is a valid hash of a random throwaway password, computed at
	// the same cost as real hashes. VerifyDummy compares against it so a
	// login for an unknown email burns the same CPU time as a wrong password.
	dummyHash []byte
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// Costs outside bcrypt's [4, 31] range are rejected.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, cost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(xid.New().String()), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: generating dummy hash: %w", err)
	}

	return &PasswordService{cost: cost, dummyHash: dummy}, nil
}

// NewPasswordServiceForTest creates a PasswordService with bcrypt cost 4.
// Use this in tests in other packages. Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	ps, err := NewPasswordService(bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return ps
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns an error if the plaintext is longer than 72 bytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored bcrypt hash.
//
// bcrypt.CompareHashAndPassword compares in constant time. Any failure (wrong
// password, truncated or garbage hash, unknown version) is just "false":
// callers never need to tell them apart, and a malformed hash must not turn
// into a 500.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyDummy performs a full bcrypt comparison whose result is thrown away.
// Call it on the "no such user" path of a login.
func (p *PasswordService) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(plaintext))
}
