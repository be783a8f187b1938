// Package validate holds the client-side input checks that run before any
// request is sent.
package validate

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/nhle/taskdesk/internal/apperr"
)

// MinPasswordLength is the shortest password the register form accepts.
const MinPasswordLength = 8

// MaxStrength is the highest PasswordStrength score.
const MaxStrength = 5

var strengthLabels = [...]string{"Very Weak", "Weak", "Fair", "Good", "Strong", "Strong"}

// PasswordStrength scores pw from 0 to 5. Each of these earns one point:
// at least 8 characters, an uppercase ASCII letter, a digit, one of
// !@#$%^&*, and at least 12 characters.
func PasswordStrength(pw string) int {
	n := utf8.RuneCountInString(pw)
	score := 0
	if n >= MinPasswordLength {
		score++
	}
	if strings.ContainsAny(pw, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		score++
	}
	if strings.ContainsAny(pw, "0123456789") {
		score++
	}
	if strings.ContainsAny(pw, "!@#$%^&*") {
		score++
	}
	if n >= 12 {
		score++
	}
	return score
}

// StrengthLabel names a PasswordStrength score.
func StrengthLabel(score int) string {
	if score < 0 {
		score = 0
	}
	if score > MaxStrength {
		score = MaxStrength
	}
	return strengthLabels[score]
}

// Email checks that addr is a bare, well-formed address.
func Email(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return apperr.Invalid("email", "Email is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return apperr.Invalid("email", "Please enter a valid email address")
	}
	return nil
}

// Credentials validates the register form. Login only needs Email and a
// non-empty password, see Login.
func Credentials(email, password, confirm string) error {
	if err := Email(email); err != nil {
		return err
	}
	if password != confirm {
		return apperr.Invalid("confirm", "Passwords do not match")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperr.Invalid("password", "Password must be at least 8 characters")
	}
	return nil
}

// Login validates the sign-in form.
func Login(email, password string) error {
	if err := Email(email); err != nil {
		return err
	}
	if password == "" {
		return apperr.Invalid("password", "Password is required")
	}
	return nil
}
