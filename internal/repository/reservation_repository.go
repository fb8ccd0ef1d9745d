package repository

import (
    "context"
    "database/sql"

    "github.com/rutaviva/tour-booking/internal/model"
)

// ReservationRepo persists reservations, the embedded half of the user
// aggregate.  The event_id column is a cross-aggregate reference with no
// foreign-key enforcement; the reservation service is the sole integrity
// guard, so no other code path may write reservation state or the event's
// booked_seats counter.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, event_id, num_persons, price_cents,
    name, email, telephone, payment_id, state, state_changed_at, created_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
    var res model.Reservation
    err := row.Scan(&res.ID, &res.UserID, &res.EventID, &res.NumPersons, &res.PriceCents,
        &res.Name, &res.Email, &res.Telephone, &res.PaymentID, &res.State,
        &res.StateChangedAt, &res.CreatedAt)
    return res, err
}

// Insert appends a reservation to its user and populates the generated id.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
    const q = `INSERT INTO reservations
        (user_id, event_id, num_persons, price_cents, name, email, telephone, payment_id, state, state_changed_at)
        VALUES (?,?,?,?,?,?,?,?,?,NOW())`
    out, err := r.db.ExecContext(ctx, q, res.UserID, res.EventID, res.NumPersons,
        res.PriceCents, res.Name, res.Email, res.Telephone, res.PaymentID, res.State)
    if err != nil {
        return err
    }
    id, err := out.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return nil
}

// GetByIDForUser loads one reservation, restricted to the owning user.
// Returns ErrReservationNotFound when no such reservation exists for that
// user.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (model.Reservation, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE id = ? AND user_id = ?`, id, userID)
    res, err := scanReservation(row)
    if err == sql.ErrNoRows {
        return model.Reservation{}, ErrReservationNotFound
    }
    return res, err
}

// ListByUser returns all reservations of a user, oldest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY created_at`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectReservations(rows)
}

// ListByEventAndState returns every reservation across all users that
// references the given event in the given stored state.  Bulk event
// cancellation uses this to find the SUCCESS reservations to cascade to.
func (r *ReservationRepo) ListByEventAndState(ctx context.Context, eventID uint64, state model.ReservationState) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE event_id = ? AND state = ? ORDER BY id`,
        eventID, state)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectReservations(rows)
}

// ListByEventForOwner returns all reservations on an event for the guide
// dashboard, regardless of state.
func (r *ReservationRepo) ListByEventForOwner(ctx context.Context, eventID uint64) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+reservationColumns+` FROM reservations WHERE event_id = ? ORDER BY created_at`, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectReservations(rows)
}

// SetState transitions a reservation and stamps state_changed_at.
func (r *ReservationRepo) SetState(ctx context.Context, id uint64, state model.ReservationState) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET state = ?, state_changed_at = NOW() WHERE id = ?`, state, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrReservationNotFound
    }
    return nil
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
