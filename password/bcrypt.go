package password

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used when no explicit cost is
	// configured.
	DefaultCost = 12

	minCost      = bcrypt.MinCost
	maxCost      = bcrypt.MaxCost
	minPassBytes = 8
)

// Hasher defines a public type used by the authentication engine APIs.
//
// Hasher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Hasher struct {
	cost int
}

// NewHasher describes the newhasher operation and its observable behavior.
//
// NewHasher may return an error when input validation, dependency calls, or security checks fail.
// NewHasher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewHasher(cost int) (*Hasher, error) {
	if cost < minCost || cost > maxCost {
		return nil, errors.New("password cost out of bcrypt range")
	}
	return &Hasher{cost: cost}, nil
}

// Hash describes the hash operation and its observable behavior.
//
// Hash may return an error when input validation, dependency calls, or security checks fail.
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hasher) Hash(password string) (string, error) {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if len(password) < minPassBytes {
		return "", errors.New("password must be at least 8 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify describes the verify operation and its observable behavior.
//
// Verify returns false with a nil error on a plain mismatch; an error is
// reserved for malformed or unsupported stored hashes.
func (h *Hasher) Verify(password string, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// ConstantTimeCompare reports whether two short secrets (one-time codes,
// challenge tokens) are equal without leaking position-of-divergence
// timing. Both inputs are padded to the longer length so the comparison
// performs full work even when the lengths differ.
func ConstantTimeCompare(a, b string) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	ab := make([]byte, n)
	bb := make([]byte, n)
	copy(ab, a)
	copy(bb, b)

	lenEq := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare(ab, bb)
	return lenEq&cmp == 1
}
