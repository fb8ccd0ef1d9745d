// Package queue defines message payloads exchanged over the message broker
// plus the publisher and the background consumer.
package queue

// Audit event kinds published by the lifecycle services.
const (
    KindReservationCreated   = "reservation.created"
    KindReservationCancelled = "reservation.cancelled"
    KindEventCancelled       = "event.cancelled"
)

// BookingAuditEvent is published on every reservation or event lifecycle
// transition.  It carries enough for downstream consumers to log, notify
// or feed analytics without querying the primary database.  Ids that do
// not apply to a kind are zero.
type BookingAuditEvent struct {
    MessageID     string `json:"message_id"`
    Kind          string `json:"kind"`
    ActivityID    uint64 `json:"activity_id"`
    ActivityName  string `json:"activity_name,omitempty"`
    EventID       uint64 `json:"event_id"`
    EventDate     string `json:"event_date,omitempty"`
    ReservationID uint64 `json:"reservation_id,omitempty"`
    UserID        uint64 `json:"user_id,omitempty"`
    NumPersons    uint32 `json:"num_persons,omitempty"`
    PriceCents    uint32 `json:"price_cents,omitempty"`
    Refunded      bool   `json:"refunded,omitempty"`
    OccurredAt    string `json:"occurred_at"`
}
