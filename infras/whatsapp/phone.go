package whatsapp

import (
	"errors"
	"strings"
	"unicode"
)

const (
	countryCode       = "91"
	nationalNumberLen = 10
)

var ErrInvalidPhone = errors.New("invalid indian mobile number")

// NormalizePhone returns the number as 91XXXXXXXXXX, the format Zaptra expects.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}

		return -1
	}, raw)

	switch {
	case len(digits) == nationalNumberLen:
		digits = countryCode + digits
	case len(digits) == nationalNumberLen+1 && digits[0] == '0':
		digits = countryCode + digits[1:]
	case len(digits) == nationalNumberLen+len(countryCode) && strings.HasPrefix(digits, countryCode):
	default:
		return "", ErrInvalidPhone
	}

	if digits[len(countryCode)] < '6' {
		return "", ErrInvalidPhone
	}

	return digits, nil
}
