// Package ledger holds the in-memory seat bookkeeping rules for a single
// event instance.  These functions mutate the event value they are given;
// durable counter changes go through the repository's atomic increment
// statements, which enforce the same capacity predicate row-side so that
// concurrent writers cannot lose updates.
package ledger

import (
	"errors"

	"github.com/rutaviva/tour-booking/internal/model"
)

// ErrCapacityExceeded is returned when a reservation would push the booked
// counter past the event's capacity.
var ErrCapacityExceeded = errors.New("not enough free seats")

// Reserve consumes numPersons seats on the event.  It fails without
// mutating anything when booked + numPersons would exceed capacity.
func Reserve(ev *model.Event, numPersons uint32) error {
	if ev.BookedSeats+numPersons > ev.Seats {
		return ErrCapacityExceeded
	}
	ev.BookedSeats += numPersons
	return nil
}

// Release gives numPersons seats back, flooring the counter at zero.
func Release(ev *model.Event, numPersons uint32) {
	if numPersons >= ev.BookedSeats {
		ev.BookedSeats = 0
		return
	}
	ev.BookedSeats -= numPersons
}

// CancelEvent marks the event cancelled.  Seats and BookedSeats are left
// untouched: cancelled events keep their historical occupancy.
func CancelEvent(ev *model.Event) {
	ev.State = model.EventCancelled
}
