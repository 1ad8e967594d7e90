package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
	ErrPersistence       = errors.New("persistence failure")
	// ErrConflict is returned when the order changed between read and write.
	ErrConflict = errors.New("concurrent modification")
)
