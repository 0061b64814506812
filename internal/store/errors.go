package store

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when the requested product id does not exist.
	ErrNotFound = errors.New("product not found")

	// ErrDuplicate is returned when a write would create a second live
	// product with the same description and place of purchase.
	ErrDuplicate = errors.New("duplicate description and place of purchase")

	// ErrValidation is returned when a required field is missing or out of range.
	ErrValidation = errors.New("validation failed")
)
