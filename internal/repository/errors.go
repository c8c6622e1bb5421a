// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrDirectorNotFound indicates that a movie write referenced
// a person who either does not exist or is not a director, while
// ErrEmailExists signals that registration cannot proceed because the
// address is already taken.
package repository

import (
	"errors"
	"fmt"
)

// ErrPersonNotFound is returned when a person lookup by id matches no row.
// Handlers should translate this into an HTTP 404 response.
var ErrPersonNotFound = errors.New("person not found")

// ErrMovieNotFound is returned when a movie lookup by id matches no row.
// Handlers should translate this into an HTTP 404 response.
var ErrMovieNotFound = errors.New("movie not found")

// ErrDirectorNotFound is returned when a movie write references a
// director id that does not resolve to a person with role "director".
// This covers both a missing row and a person holding the wrong role;
// the referential check is resolve-by-id-then-assert-role, so a
// role=actor person can never fill the director slot.
var ErrDirectorNotFound = errors.New("director not found")

// ErrActorNotFound is returned when a movie write references an actor
// id that does not resolve to a person with role "actor".  The write
// is aborted before any row is touched, so a failing id in the middle
// of an actor list never leaves a partially applied set behind.
var ErrActorNotFound = errors.New("actor not found")

// RefError carries the specific person reference that failed a role
// check.  It unwraps to ErrDirectorNotFound or ErrActorNotFound so
// callers can match with errors.Is while still reporting the offending
// id with errors.As.
type RefError struct {
	ID   uint64
	kind error
}

func (e *RefError) Error() string { return fmt.Sprintf("%v (id %d)", e.kind, e.ID) }

func (e *RefError) Unwrap() error { return e.kind }

// ErrEmailExists is returned when account creation collides with an
// existing email address. Handlers should translate this into an
// HTTP 400 response.
var ErrEmailExists = errors.New("email already exists")
