package settings

import "errors"

var (
	// ErrReadOnly is returned when writing through a read-only namespace.
	ErrReadOnly = errors.New("settings: namespace opened read-only")

	// ErrInvalidNamespace is returned for an empty namespace name.
	ErrInvalidNamespace = errors.New("settings: namespace cannot be empty")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("settings: key cannot be empty")
)
