// Package otpcode generates short-lived numeric one-time codes.
//
// Codes are drawn from crypto/rand so every code in the space is equally
// likely, including codes with leading zeros.
package otpcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidLength indicates an unsupported code length.
var ErrInvalidLength = errors.New("otpcode: length must be between 4 and 10")

// Generator produces fixed-length numeric one-time codes.
type Generator interface {
	// Generate returns a new zero-padded numeric code.
	Generate() (string, error)
}

// Numeric implements Generator for a fixed digit length.
type Numeric struct {
	length int
	max    *big.Int
}

// NewNumeric returns a generator producing codes of the given digit length.
func NewNumeric(length int) (*Numeric, error) {
	if length < 4 || length > 10 {
		return nil, ErrInvalidLength
	}

	max := big.NewInt(10)
	max.Exp(max, big.NewInt(int64(length)), nil)

	return &Numeric{length: length, max: max}, nil
}

// Generate returns a new zero-padded numeric code.
func (g *Numeric) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		return "", fmt.Errorf("otpcode: %w", err)
	}

	return fmt.Sprintf("%0*d", g.length, n), nil
}
