package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateReference is returned when inserting a transaction whose
	// gateway reference already exists. A concurrent finalizer won the race.
	ErrDuplicateReference = errors.New("duplicate gateway reference")
)
