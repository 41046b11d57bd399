package model

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrInvalidProduct = errors.New("invalid product")

const DescriptionPreviewLength = 100

// Product is a catalog entry.
type Product struct {
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Manufacturer   string    `json:"manufacturer"`
	AvailableItems int       `json:"availableItems"`
	Price          float64   `json:"price"`
	ImageURL       string    `json:"imageUrl"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid product: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidProduct).
func (fe FieldErrors) Unwrap() error {
	return ErrInvalidProduct
}

// Validate checks the add/modify product form. It returns nil or FieldErrors.
func (p *Product) Validate() error {
	fe := FieldErrors{}
	if blank(p.Name) {
		fe["name"] = "Name is required."
	}
	if blank(p.Category) {
		fe["category"] = "Category is required."
	}
	if blank(p.Manufacturer) {
		fe["manufacturer"] = "Manufacturer is required."
	}
	if p.AvailableItems <= 0 {
		fe["availableItems"] = "Available Items must be a number."
	}
	if p.Price <= 0 {
		fe["price"] = "Price must be a number."
	}
	if blank(p.ImageURL) {
		fe["imageUrl"] = "Image URL is required."
	}
	if blank(p.Description) {
		fe["description"] = "Description is required."
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// DescriptionPreview truncates long descriptions for summary views.
func (p *Product) DescriptionPreview() string {
	if utf8.RuneCountInString(p.Description) <= DescriptionPreviewLength {
		return p.Description
	}
	r := []rune(p.Description)
	return string(r[:DescriptionPreviewLength]) + "..."
}
