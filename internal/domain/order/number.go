package order

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
)

// Number is the human-facing order identifier, e.g. "ORD-483920".
type Number string

const numberPrefix = "ORD-"

var (
	ErrInvalidNumber = errors.New("invalid order number format")

	numberPattern = regexp.MustCompile(`^ORD-[0-9]{6}$`)
)

// NewNumber generates a random order number. The generator does not guarantee
// uniqueness; the storage layer enforces it with a unique index and callers
// retry on collision.
func NewNumber() (Number, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return Number(fmt.Sprintf("%s%06d", numberPrefix, n.Int64())), nil
}

// ParseNumber validates the fixed prefix + 6 digit pattern.
func ParseNumber(s string) (Number, error) {
	if !numberPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return Number(s), nil
}

func (n Number) String() string { return string(n) }
