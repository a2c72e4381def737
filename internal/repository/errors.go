package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write collides with an existing entity
	ErrConflict = errors.New("conflict: entity already exists")

	// ErrNoTransaction is returned when a write runs outside WithinTx
	ErrNoTransaction = errors.New("no transaction in context")
)
