// Package invite provides invite code generation for group membership.
package invite

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// CodeLength is the fixed length of invite codes.
	CodeLength = 8

	// Alphabet contains the 62 symbols invite codes are drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// maxUnbiased is the largest byte value usable without modulo bias
// (4 * 62 = 248).
const maxUnbiased = byte(len(Alphabet) * (256 / len(Alphabet)))

// ErrInvalidCode is returned when a candidate code has the wrong length.
var ErrInvalidCode = errors.New("invite code must be 8 characters")

// NewCode generates a random invite code of CodeLength characters, each drawn
// independently and uniformly from Alphabet. The generator performs no
// uniqueness check; callers that need unique codes must verify against the
// store themselves.
func NewCode() (string, error) {
	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)

	for len(code) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == CodeLength {
				break
			}
		}
	}

	return string(code), nil
}

// ValidateCode checks that a candidate invite code is exactly CodeLength
// characters. Alphabet membership is not checked; a well-formed code that
// matches no group is a not-found condition, not a validation failure.
func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return ErrInvalidCode
	}
	return nil
}
