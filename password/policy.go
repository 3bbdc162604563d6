package password

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrTooShort is returned when a password has fewer characters than Policy.MinLength.
	ErrTooShort = errors.New("password too short")
	// ErrTooLong is returned when a password exceeds Policy.MaxBytes.
	ErrTooLong = errors.New("password too long")
	// ErrTooSimple is returned when a password mixes fewer than Policy.MinClasses character classes.
	ErrTooSimple = errors.New("password too simple")
)

// Policy is the minimum strength a new password must meet. Length is counted
// in characters, the upper bound in bytes.
type Policy struct {
	MinLength  int
	MaxBytes   int
	MinClasses int
}

// DefaultPolicy requires 8 characters drawn from at least three of lower
// case, upper case, digits and symbols.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:  8,
		MaxBytes:   256,
		MinClasses: 3,
	}
}

// Check returns nil when plaintext satisfies the policy.
func (p Policy) Check(plaintext string) error {
	if p.MaxBytes > 0 && len(plaintext) > p.MaxBytes {
		return ErrTooLong
	}
	if utf8.RuneCountInString(plaintext) < p.MinLength || plaintext == "" {
		return ErrTooShort
	}
	if classCount(plaintext) < p.MinClasses {
		return ErrTooSimple
	}
	return nil
}

func classCount(s string) int {
	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	n := 0
	for _, set := range [...]bool{lower, upper, digit, other} {
		if set {
			n++
		}
	}
	return n
}
