package store

import "errors"

// ErrNotFound is returned when a record does not exist or is not owned
// by the requesting user.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a unique email constraint is violated.
var ErrDuplicateEmail = errors.New("email already registered")
