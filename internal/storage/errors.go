package storage

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidRole       = errors.New("invalid role")
	ErrValidation        = errors.New("validation failed")

	// errSkipSave lets an Update callback finish without writing the document back.
	errSkipSave = errors.New("skip save")
)
