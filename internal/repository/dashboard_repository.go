package repository

import (
    "context"
    "database/sql"

    "github.com/rutaviva/tour-booking/internal/model"
)

// DashboardRepo computes the admin dashboard aggregates.  All numbers are
// produced by single queries; nothing here mutates state.
type DashboardRepo struct {
    db *sql.DB
}

// NewDashboardRepo returns a new DashboardRepo bound to the given database.
func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

// Totals is the headline block of the dashboard.
type Totals struct {
    Tourists            uint64 `json:"tourists"`
    Guides              uint64 `json:"guides"`
    Activities          uint64 `json:"activities"`
    UpcomingEvents      uint64 `json:"upcoming_events"`
    ActiveReservations  uint64 `json:"active_reservations"`
    RevenueCents        uint64 `json:"revenue_cents"`
    CancelledEvents     uint64 `json:"cancelled_events"`
    CancelledBookings   uint64 `json:"cancelled_bookings"`
}

// GetTotals loads the headline counters in one round trip per metric.
func (r *DashboardRepo) GetTotals(ctx context.Context) (Totals, error) {
    var t Totals
    steps := []struct {
        q    string
        args []any
        dst  *uint64
    }{
        {"SELECT COUNT(*) FROM users WHERE role=?", []any{model.RoleTourist}, &t.Tourists},
        {"SELECT COUNT(*) FROM users WHERE role=?", []any{model.RoleGuide}, &t.Guides},
        {"SELECT COUNT(*) FROM activities WHERE state<>?", []any{model.ActivityCancelled}, &t.Activities},
        {"SELECT COUNT(*) FROM events WHERE state=? AND date>=NOW()", []any{model.EventActive}, &t.UpcomingEvents},
        {"SELECT COUNT(*) FROM reservations WHERE state IN (?,?)",
            []any{model.ReservationPending, model.ReservationSuccess}, &t.ActiveReservations},
        {"SELECT COALESCE(SUM(price_cents),0) FROM reservations WHERE state=?",
            []any{model.ReservationSuccess}, &t.RevenueCents},
        {"SELECT COUNT(*) FROM events WHERE state=?", []any{model.EventCancelled}, &t.CancelledEvents},
        {"SELECT COUNT(*) FROM reservations WHERE state=?", []any{model.ReservationCancelled}, &t.CancelledBookings},
    }
    for _, s := range steps {
        if err := r.db.QueryRowContext(ctx, s.q, s.args...).Scan(s.dst); err != nil {
            return Totals{}, err
        }
    }
    return t, nil
}

// ActivityOccupancy summarizes seat consumption per activity.
type ActivityOccupancy struct {
    ActivityID   uint64  `json:"activity_id"`
    ActivityName string  `json:"activity_name"`
    Events       uint64  `json:"events"`
    Seats        uint64  `json:"seats"`
    BookedSeats  uint64  `json:"booked_seats"`
    Occupancy    float64 `json:"occupancy"`
}

// GetOccupancy aggregates capacity vs booked seats over active events.
func (r *DashboardRepo) GetOccupancy(ctx context.Context) ([]ActivityOccupancy, error) {
    const q = `SELECT a.id, a.name, COUNT(e.id),
            COALESCE(SUM(e.seats),0), COALESCE(SUM(e.booked_seats),0)
        FROM activities a
        JOIN events e ON e.activity_id = a.id AND e.state = ?
        GROUP BY a.id, a.name
        ORDER BY a.name`
    rows, err := r.db.QueryContext(ctx, q, model.EventActive)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ActivityOccupancy, 0)
    for rows.Next() {
        var o ActivityOccupancy
        if err := rows.Scan(&o.ActivityID, &o.ActivityName, &o.Events, &o.Seats, &o.BookedSeats); err != nil {
            return nil, err
        }
        if o.Seats > 0 {
            o.Occupancy = float64(o.BookedSeats) / float64(o.Seats)
        }
        out = append(out, o)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
