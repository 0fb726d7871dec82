package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooShort rejects merchant passwords below the minimum length
// before any hashing work is done.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

const (
	// merchantHashCost trades login latency for brute-force resistance.
	// Merchant logins are rare, so a cost above the bcrypt default is fine.
	merchantHashCost = 12

	minPasswordLength = 8
)

// HashPassword produces the bcrypt hash stored on the store record as the
// merchant credential. The raw password is never persisted.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), merchantHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored merchant
// credential hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
