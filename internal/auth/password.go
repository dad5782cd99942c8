package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength applies to admin accounts, the only accounts that log in.
	MinPasswordLength = 12
	// MaxPasswordBytes is bcrypt's input limit; longer input would be silently cut.
	MaxPasswordBytes = 72
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// ValidatePassword checks an admin password before anything is stored, so
// provisioning can fail early.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordBytes:
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword validates the password and returns its bcrypt hash. Costs
// below bcrypt's minimum fall back to the default.
func HashPassword(password string, cost int) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash. A mismatch is reported
// as ErrInvalidPassword; a malformed hash is returned as is.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// timingHash is compared against for unknown usernames, so a missing account
// costs as much as a wrong password.
func timingHash(cost int) string {
	hash, err := HashPassword("timing-equalizer-password", cost)
	if err != nil {
		return ""
	}
	return hash
}

// GenerateSecret returns 32 random bytes hex-encoded. It stands in for an
// unset SECRET_KEY.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
