package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const passwordMinLength = 8

// passwordSymbols mirrors the character class accepted by the public API
// documentation; changing it breaks previously registered clients.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// PasswordViolation names one failed strength rule.
type PasswordViolation string

const (
	PasswordTooShort      PasswordViolation = "too_short"
	PasswordMissingUpper  PasswordViolation = "missing_uppercase"
	PasswordMissingLower  PasswordViolation = "missing_lowercase"
	PasswordMissingDigit  PasswordViolation = "missing_digit"
	PasswordMissingSymbol PasswordViolation = "missing_symbol"
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a presented password with a stored bcrypt hash.
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckPasswordStrength evaluates every rule independently and returns all
// violations rather than stopping at the first one.
func CheckPasswordStrength(password string) (bool, []PasswordViolation) {
	var violations []PasswordViolation
	if len(password) < passwordMinLength {
		violations = append(violations, PasswordTooShort)
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !upper {
		violations = append(violations, PasswordMissingUpper)
	}
	if !lower {
		violations = append(violations, PasswordMissingLower)
	}
	if !digit {
		violations = append(violations, PasswordMissingDigit)
	}
	if !symbol {
		violations = append(violations, PasswordMissingSymbol)
	}
	return len(violations) == 0, violations
}
