// Package identity validates and masks the Brazilian CPF field. The check
// gates the whole validation pipeline: no oracle call happens for a
// registration whose CPF does not canonicalize to 11 digits.
package identity

import (
	"errors"
	"strings"
)

// ErrInvalidIdentifier is returned when the CPF, after stripping
// conventional punctuation, is not exactly 11 decimal digits.
var ErrInvalidIdentifier = errors.New("cpf must contain exactly 11 digits")

var stripper = strings.NewReplacer(".", "", "-", "")

// Validate strips "." and "-" from raw and checks the result is exactly
// 11 ASCII digits. It returns the canonical digit string.
func Validate(raw string) (string, error) {
	s := stripper.Replace(strings.TrimSpace(raw))
	if len(s) != 11 {
		return "", ErrInvalidIdentifier
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", ErrInvalidIdentifier
		}
	}
	return s, nil
}

// Mask renders a valid 11-digit CPF as "ddd.***.***-dd", keeping the first
// three and last two digits visible. Input of any other length is returned
// unchanged; callers that re-mask an already-masked value get it back as-is.
func Mask(cpf string) string {
	if len(cpf) != 11 {
		return cpf
	}
	return cpf[:3] + ".***.***-" + cpf[9:]
}
