package auth

import (
	"regexp"
	"unicode/utf8"

	"waz-calendar/internal/models"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 30
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateSignup checks signup input before any storage call.
func ValidateSignup(username, password, confirm string) error {
	if !usernamePattern.MatchString(username) {
		return &models.ValidationError{Field: "username", Message: "only letters, digits and underscore are allowed"}
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return &models.ValidationError{Field: "password", Message: "must be between 8 and 30 characters"}
	}
	if password != confirm {
		return &models.ValidationError{Field: "confirmPassword", Message: "does not match password"}
	}
	return nil
}
