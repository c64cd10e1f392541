package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrCycle is returned when the prerequisites of a task loop back to itself.
	ErrCycle = errors.New("dependency cycle")
	// ErrActionFailed is returned when a task action fails.
	ErrActionFailed = errors.New("action failed")
)
