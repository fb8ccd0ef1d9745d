package model

import "time"

// EventState enumerates the lifecycle states of an event instance.  Events
// are never deleted; cancellation is a state transition so that past
// occupancy stays visible for reporting.
type EventState string

const (
    EventActive    EventState = "ACTIVE"
    EventCancelled EventState = "CANCELLED"
)

// Event is one concrete scheduled occurrence of an Activity with its own
// capacity, price and guide.  BookedSeats is the seat-ledger counter: the
// sum of NumPersons over all PENDING and SUCCESS reservations referencing
// this event must equal BookedSeats at all times, and BookedSeats never
// exceeds Seats.  The counter is only ever adjusted through atomic
// per-row increments issued by the repository, never by overwriting a
// value computed in application memory.
//
// Fields:
//  ID          – primary key identifier, unique across activities.
//  ActivityID  – owning activity.
//  Date        – concrete start timestamp (UTC).
//  Seats       – seat capacity.
//  BookedSeats – consumed seats, 0 <= BookedSeats <= Seats.
//  PriceCents  – price per person in cents.
//  Language    – language the event is held in.
//  GuideID     – user (GUIDE role) leading this event.
//  State       – ACTIVE or CANCELLED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uint64     // events.id
    ActivityID  uint64     // events.activity_id
    Date        time.Time  // events.date
    Seats       uint32     // events.seats
    BookedSeats uint32     // events.booked_seats
    PriceCents  uint32     // events.price_cents
    Language    string     // events.language
    GuideID     uint64     // events.guide_id
    State       EventState // events.state
    CreatedAt   time.Time  // events.created_at
    UpdatedAt   time.Time  // events.updated_at
}
