// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without parsing driver errors.
package repository

import "errors"

// ErrActivityNotFound is returned when no activity matches the given id.
var ErrActivityNotFound = errors.New("activity not found")

// ErrEventNotFound is returned when no event matches the given id.
var ErrEventNotFound = errors.New("event not found")

// ErrReservationNotFound is returned when no reservation matches the
// given id for the given user.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrUserNotFound is returned when no user matches the given id.
var ErrUserNotFound = errors.New("user not found")

// ErrNoCapacity is returned by the atomic seat reservation statement when
// the requested seats would exceed the event's capacity.  The guard lives
// in the UPDATE itself so concurrent writers serialize on the row and can
// never overbook.
var ErrNoCapacity = errors.New("not enough free seats")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
