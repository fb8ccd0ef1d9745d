package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/rutaviva/tour-booking/internal/model"
)

// EventRepo persists event instances, the embedded half of the activity
// aggregate.  The booked_seats counter is only ever touched through the
// atomic ReserveSeats/ReleaseSeats statements so that concurrent
// reservation creation and bulk cancellation serialize on the row instead
// of racing an application-side read-modify-write.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, activity_id, date, seats, booked_seats, price_cents,
    language, guide_id, state, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
    var e model.Event
    err := row.Scan(&e.ID, &e.ActivityID, &e.Date, &e.Seats, &e.BookedSeats,
        &e.PriceCents, &e.Language, &e.GuideID, &e.State, &e.CreatedAt, &e.UpdatedAt)
    return e, err
}

// GetByID loads one event.  Returns ErrEventNotFound when missing.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
    e, err := scanEvent(row)
    if err == sql.ErrNoRows {
        return model.Event{}, ErrEventNotFound
    }
    return e, err
}

// InsertMany appends expanded instances to an activity in one statement
// and queries the generated ids back.  Ids are always store-assigned;
// client-specified ids are not supported.  Passing an empty slice is a
// no-op.
func (r *EventRepo) InsertMany(ctx context.Context, activityID uint64, evs []model.Event) ([]model.Event, error) {
    if len(evs) == 0 {
        return []model.Event{}, nil
    }
    query := `INSERT INTO events (activity_id, date, seats, booked_seats, price_cents, language, guide_id, state) VALUES `
    args := make([]any, 0, len(evs)*8)
    for i, e := range evs {
        if i > 0 {
            query += ","
        }
        query += "(?,?,?,?,?,?,?,?)"
        args = append(args, activityID, e.Date.UTC(), e.Seats, e.BookedSeats,
            e.PriceCents, e.Language, e.GuideID, e.State)
    }
    res, err := r.db.ExecContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    first, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    // MySQL returns the id of the first row of a multi-row insert; with
    // innodb_autoinc_lock_mode consecutive allocation the rest follow.
    out := make([]model.Event, len(evs))
    for i, e := range evs {
        e.ID = uint64(first) + uint64(i)
        e.ActivityID = activityID
        out[i] = e
    }
    return out, nil
}

// ListByActivity returns all instances of an activity in chronological
// order, cancelled ones included (they stay visible for history).
func (r *EventRepo) ListByActivity(ctx context.Context, activityID uint64) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+eventColumns+` FROM events WHERE activity_id = ? ORDER BY date`, activityID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectEvents(rows)
}

// ListByActivityGuideWindow returns the events of one activity led by the
// given guide whose date falls inside [from, to] inclusive.  The service
// applies the time-of-day and weekday filters on top of this window.
func (r *EventRepo) ListByActivityGuideWindow(ctx context.Context, activityID, guideID uint64, from, to time.Time) ([]model.Event, error) {
    const q = `SELECT ` + eventColumns + ` FROM events
        WHERE activity_id = ? AND guide_id = ? AND date >= ? AND date <= ?
        ORDER BY date`
    rows, err := r.db.QueryContext(ctx, q, activityID, guideID, from.UTC(), to.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectEvents(rows)
}

// ReserveSeats consumes n seats atomically.  The capacity predicate is
// part of the UPDATE, so the statement either increments within capacity
// or affects no row, in which case ErrNoCapacity (or ErrEventNotFound for
// an unknown or cancelled event) is returned.
func (r *EventRepo) ReserveSeats(ctx context.Context, eventID uint64, n uint32) error {
    const q = `UPDATE events SET booked_seats = booked_seats + ?
        WHERE id = ? AND state = ? AND booked_seats + ? <= seats`
    res, err := r.db.ExecContext(ctx, q, n, eventID, model.EventActive, n)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 1 {
        return nil
    }
    // Distinguish a full event from a missing/cancelled one.
    var state string
    err = r.db.QueryRowContext(ctx, `SELECT state FROM events WHERE id = ?`, eventID).Scan(&state)
    if err == sql.ErrNoRows {
        return ErrEventNotFound
    }
    if err != nil {
        return err
    }
    if !strings.EqualFold(state, string(model.EventActive)) {
        return ErrEventNotFound
    }
    return ErrNoCapacity
}

// ReleaseSeats returns n seats atomically, flooring the counter at zero.
func (r *EventRepo) ReleaseSeats(ctx context.Context, eventID uint64, n uint32) error {
    const q = `UPDATE events
        SET booked_seats = IF(booked_seats < ?, 0, booked_seats - ?)
        WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, n, n, eventID)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        // MySQL reports 0 affected rows when the value did not change,
        // which also happens when the counter was already 0.  Only a
        // truly missing row is an error.
        var one int
        err = r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, eventID).Scan(&one)
        if err == sql.ErrNoRows {
            return ErrEventNotFound
        }
        return err
    }
    return nil
}

// SetStateBulk transitions many events at once.  Used by recurring
// cancellation after all reservation cascades for an event succeeded.
func (r *EventRepo) SetStateBulk(ctx context.Context, ids []uint64, state model.EventState) error {
    if len(ids) == 0 {
        return nil
    }
    placeholders := make([]string, 0, len(ids))
    args := make([]any, 0, len(ids)+1)
    args = append(args, state)
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    q := `UPDATE events SET state = ? WHERE id IN (` + strings.Join(placeholders, ",") + `)`
    _, err := r.db.ExecContext(ctx, q, args...)
    return err
}

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
    out := make([]model.Event, 0)
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
