// Package service holds the event and reservation lifecycle managers.
// All mutations that touch both aggregates (the activity's embedded
// events and the users' embedded reservations) are centralized here;
// nothing else writes reservation state or the booked-seats counter.
package service

import (
	"context"
	"time"

	"github.com/rutaviva/tour-booking/internal/model"
)

// ActivityStore is the activity-side slice of the store adapter.
type ActivityStore interface {
	GetByID(ctx context.Context, id uint64) (model.Activity, error)
	GetByEventID(ctx context.Context, eventID uint64) (model.Activity, error)
}

// EventStore is the event-side slice of the store adapter.  ReserveSeats
// and ReleaseSeats must be atomic per row: the capacity check and the
// increment happen in one store operation.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	InsertMany(ctx context.Context, activityID uint64, evs []model.Event) ([]model.Event, error)
	ListByActivityGuideWindow(ctx context.Context, activityID, guideID uint64, from, to time.Time) ([]model.Event, error)
	ReserveSeats(ctx context.Context, eventID uint64, n uint32) error
	ReleaseSeats(ctx context.Context, eventID uint64, n uint32) error
	SetStateBulk(ctx context.Context, ids []uint64, state model.EventState) error
}

// ReservationStore is the reservation-side slice of the store adapter.
type ReservationStore interface {
	Insert(ctx context.Context, res *model.Reservation) error
	GetByIDForUser(ctx context.Context, id, userID uint64) (model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByEventAndState(ctx context.Context, eventID uint64, state model.ReservationState) ([]model.Reservation, error)
	SetState(ctx context.Context, id uint64, state model.ReservationState) error
}

// UserDirectory answers identity questions about users.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	IsGuide(ctx context.Context, id uint64) (bool, error)
}
