package errors

import "errors"

var (
	ErrNotFound = errors.New("admin not found")
)
