// Package apperr holds the sentinel errors shared across layers. Handlers
// map them to transport status codes with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrNotNotebook    = errors.New("not a notebook")
	ErrInvalidVariant = errors.New("invalid variant")
	ErrInvalidInput   = errors.New("invalid input")
)
