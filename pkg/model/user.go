package model

import "strings"

// User is the identity record returned by the sign-in endpoint.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Roles     []string `json:"roles"`
}

// PrimaryRole returns the first role, which the storefront treats as "the" role.
func (u *User) PrimaryRole() string {
	if u == nil || len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// DisplayName returns a human readable name, falling back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Email
}

// Credentials are what the user types into the sign-in form.
type Credentials struct {
	Email    string `json:"username"`
	Password string `json:"password"`
}

// Validate checks both fields are present and the email is well formed.
func (c Credentials) Validate() error {
	if blank(c.Email) || c.Password == "" {
		return ErrFieldsRequired
	}
	return ValidateEmail(c.Email)
}
