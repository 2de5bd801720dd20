// Package repository implements the data-access layer over MySQL. Sentinel
// errors defined here let handlers translate failure scenarios to HTTP
// responses without string matching.
package repository

import "errors"

// ErrEmailExists is returned when an insert would violate the unique email
// constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no row and the caller asked
// for a specific record.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// existing state, such as inviting a user who already has a pending
// invitation. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
