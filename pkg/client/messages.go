package client

import (
	"errors"
	"slices"
	"strings"

	"github.com/NicolasHaas/goshop/pkg/api"
	"github.com/NicolasHaas/goshop/pkg/model"
	"github.com/NicolasHaas/goshop/pkg/order"
)

// UserMessage turns an error from the storefront into text for the user.
func UserMessage(err error) string {
	var fe model.FieldErrors
	var apiErr *api.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return fieldMessages(fe)
	case errors.Is(err, ErrBadCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrNotLoggedIn):
		return "Please log in to continue."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, ErrExceedsStock):
		return "The requested quantity is not available."
	case errors.Is(err, model.ErrFieldsRequired):
		return "Please fill out all fields."
	case errors.Is(err, model.ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, model.ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, order.ErrInvalidQuantity):
		return "Quantity must be at least 1."
	case errors.Is(err, api.ErrNotFound):
		return "Not found."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return "Something went wrong. Please try again."
	}
}

func fieldMessages(fe model.FieldErrors) string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fe[k])
	}
	return strings.Join(msgs, " ")
}
