package errors

import "errors"

var (
	ErrNotFound = errors.New("tour not found")

	ErrDateNotFound = errors.New("tour date not found")

	ErrInvalidID = errors.New("invalid tour ID format")
)
