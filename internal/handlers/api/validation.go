package api

import (
	"errors"
	"net/mail"
	"regexp"
	"unicode"
)

// usernameRegex enforces the whole username policy: starts with a letter,
// letters/digits/underscores only, 4 to 32 characters.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{3,31}$`)

func validateUsername(username string) error {
	if username == "" {
		return errors.New("Username is required.")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("Username must be 4-32 characters, start with a letter, and contain only letters, numbers and underscores.")
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("Invalid email address.")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters.")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("Password must contain at least one letter and one digit.")
	}
	return nil
}
