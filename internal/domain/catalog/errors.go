package catalog

import "errors"

var (
	// ErrNotFound reports a plain id miss on get, update or delete.
	ErrNotFound = errors.New("not found")

	// ErrValidation reports missing required fields on create.
	ErrValidation = errors.New("validation failed")

	// ErrExists reports an attempt to create a duplicate profile/value link.
	ErrExists = errors.New("already exists")
)
