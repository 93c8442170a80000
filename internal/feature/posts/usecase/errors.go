package usecase

import "errors"

var (
	// ErrPostNotFound is returned when no post has the given id.
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidInput is returned when required fields are missing.
	ErrInvalidInput = errors.New("invalid input")
)
