package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

const (
	challengeSecretSize = 32

	otpDigits = 6
	otpFloor  = 100000
	otpSpan   = 900000
)

// NewChallengeSecret returns a fresh random secret for an emailed
// single-use challenge, encoded as unpadded base64url.
//
// NewChallengeSecret may return an error when the system entropy source fails.
func NewChallengeSecret() (string, error) {
	var secret [challengeSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(secret[:]), nil
}

// HashChallengeSecret returns the hex-encoded sha256 digest of a raw
// challenge secret. Only the digest is persisted; the raw secret travels
// by email exactly once.
func HashChallengeSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// ValidChallengeSecret reports whether a caller-supplied token is shaped
// like a challenge secret before any store lookup happens.
func ValidChallengeSecret(token string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return len(raw) == challengeSecretSize
}

// NewOTP returns a fresh six-digit one-time code drawn uniformly from
// the full 100000..999999 range.
//
// NewOTP may return an error when the system entropy source fails.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}

	otp := fmt.Sprintf("%0*d", otpDigits, otpFloor+n.Int64())
	if len(otp) != otpDigits {
		return "", errors.New("invalid otp generation length")
	}
	return otp, nil
}
