package model

import "time"

// ReservationState enumerates stored reservation states plus the derived
// COMPLETED value.  COMPLETED is never written to the database: it is
// computed at display time for a SUCCESS reservation whose event date has
// passed.  PENDING means the payment intent has been created but its
// outcome has not been observed yet.
type ReservationState string

const (
    ReservationPending   ReservationState = "PENDING"
    ReservationSuccess   ReservationState = "SUCCESS"
    ReservationFailure   ReservationState = "FAILURE"
    ReservationCancelled ReservationState = "CANCELLED"
    ReservationCompleted ReservationState = "COMPLETED" // derived, display only
)

// Reservation is a user's booking of NumPersons seats on one Event.  The
// EventID reference crosses aggregates and is not enforced by the store;
// the reservation service is the sole integrity guard.  Reservations are
// cancelled in place and never deleted while they reference a past event.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owning user.
//  EventID        – referenced event instance.
//  NumPersons     – number of seats booked.
//  PriceCents     – total price, NumPersons * event price at booking time.
//  Name           – contact name for the booking.
//  Email          – contact email.
//  Telephone      – contact phone number.
//  PaymentID      – external payment intent reference.
//  State          – stored state (PENDING/SUCCESS/FAILURE/CANCELLED).
//  StateChangedAt – timestamp of the last state transition, used for
//                   cancellation-date arithmetic.
//  CreatedAt      – creation timestamp.
type Reservation struct {
    ID             uint64           // reservations.id
    UserID         uint64           // reservations.user_id
    EventID        uint64           // reservations.event_id
    NumPersons     uint32           // reservations.num_persons
    PriceCents     uint32           // reservations.price_cents
    Name           string           // reservations.name
    Email          string           // reservations.email
    Telephone      string           // reservations.telephone
    PaymentID      string           // reservations.payment_id
    State          ReservationState // reservations.state
    StateChangedAt time.Time        // reservations.state_changed_at
    CreatedAt      time.Time        // reservations.created_at
}
