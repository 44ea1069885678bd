package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidDate   = errors.New("invalid date")
	ErrNoWorkspace   = errors.New("no workspace root")
)
