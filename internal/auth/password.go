// Package auth holds the one-way password digest and the middleware that
// puts the session identity into a request context.
//
// Account records only ever hold the output of Digest. Login recomputes the
// comparison with Verify; the plaintext is never stored or logged.
//
// WHY BCRYPT AND NOT A PLAIN SHA-256?
// A salted, deliberately slow digest means two accounts with the same password
// get different stored values, and a leaked accounts blob is expensive to
// brute-force. bcrypt embeds its salt and cost in the output:
//
//	$2a$12$<22-char salt><31-char hash>
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer inputs would be silently
// truncated, so Digest rejects them.
const MaxPasswordBytes = 72

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("auth: password does not match")

// PasswordService computes and checks password digests.
//
// It's a struct (not free functions) so that the cost can be injected:
// tests use bcrypt.MinCost to stay fast.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService with the given bcrypt cost.
// A zero cost selects DefaultCost.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordService{cost: cost}, nil
}

// NewPasswordServiceForTest returns a PasswordService with the minimum cost.
// Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Digest returns the one-way digest of plaintext.
func (p *PasswordService) Digest(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks plaintext against a digest produced by Digest.
//
// Returns nil on a match and ErrMismatch on a wrong password. Any other error
// means the stored digest itself is unusable.
func (p *PasswordService) Verify(digest, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return fmt.Errorf("auth: comparing password digest: %w", err)
}

// Equalize burns the same time as a real comparison. Login calls it for an
// unknown username so both failure paths cost the same.
func (p *PasswordService) Equalize(plaintext string) {
	if len(plaintext) > MaxPasswordBytes {
		plaintext = plaintext[:MaxPasswordBytes]
	}
	_, _ = bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
}
