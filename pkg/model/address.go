package model

import (
	"errors"
	"strings"
)

var ErrAddressIncomplete = errors.New("please fill out all fields to save the address")
var ErrUnknownAddressField = errors.New("unknown address field")

// Address is a delivery address stored by the backend.
type Address struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	Landmark      string `json:"landmark"`
	Zipcode       string `json:"zipcode"`
}

// AddressFields lists the user-editable fields in form order.
var AddressFields = []string{"name", "contactNumber", "street", "city", "state", "landmark", "zipcode"}

// Validate reports ErrAddressIncomplete if any of the seven fields is blank.
// There is no format validation beyond presence.
func (a *Address) Validate() error {
	for _, f := range AddressFields {
		v, _ := a.Field(f)
		if blank(v) {
			return ErrAddressIncomplete
		}
	}
	return nil
}

// Field returns the value of a named field.
func (a *Address) Field(name string) (string, error) {
	switch strings.ToLower(name) {
	case "name":
		return a.Name, nil
	case "contactnumber", "contact":
		return a.ContactNumber, nil
	case "street":
		return a.Street, nil
	case "city":
		return a.City, nil
	case "state":
		return a.State, nil
	case "landmark":
		return a.Landmark, nil
	case "zipcode", "zip":
		return a.Zipcode, nil
	default:
		return "", ErrUnknownAddressField
	}
}

// SetField assigns a named field.
func (a *Address) SetField(name, value string) error {
	switch strings.ToLower(name) {
	case "name":
		a.Name = value
	case "contactnumber", "contact":
		a.ContactNumber = value
	case "street":
		a.Street = value
	case "city":
		a.City = value
	case "state":
		a.State = value
	case "landmark":
		a.Landmark = value
	case "zipcode", "zip":
		a.Zipcode = value
	default:
		return ErrUnknownAddressField
	}
	return nil
}

// Label renders the one-line form used in address pickers.
func (a *Address) Label() string {
	return a.Name + ", " + a.Street + ", " + a.City + ", " + a.State
}
