package model

import "errors"

var ErrPasswordMismatch = errors.New("passwords do not match")

// SignupRequest is the body of the sign-up endpoint.
type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	ContactNumber   string `json:"contactNumber"`
}

// Validate checks the form before it is sent.
func (r SignupRequest) Validate() error {
	if blank(r.FirstName) || blank(r.LastName) || blank(r.Email) ||
		r.Password == "" || blank(r.ContactNumber) {
		return ErrFieldsRequired
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}
