// Package model defines the core domain types for GoShop.
package model

import (
	"errors"
	"regexp"
	"strings"
)

var ErrFieldsRequired = errors.New("all fields are required")
var ErrInvalidEmail = errors.New("please enter a valid email address")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the address has the local@domain.tld shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
