package repository

import (
    "context"
    "database/sql"

    "github.com/rutaviva/tour-booking/internal/model"
)

// ReviewRepo persists activity reviews.
type ReviewRepo struct {
    db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Insert stores a review and populates its generated id.
func (r *ReviewRepo) Insert(ctx context.Context, rev *model.Review) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO reviews (activity_id, user_id, rating, comment) VALUES (?,?,?,?)`,
        rev.ActivityID, rev.UserID, rev.Rating, rev.Comment)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rev.ID = uint64(id)
    return nil
}

// ListByActivity returns the reviews of an activity, newest first.
func (r *ReviewRepo) ListByActivity(ctx context.Context, activityID uint64) ([]model.Review, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, activity_id, user_id, rating, comment, created_at
         FROM reviews WHERE activity_id = ? ORDER BY created_at DESC`, activityID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Review, 0)
    for rows.Next() {
        var rev model.Review
        if err := rows.Scan(&rev.ID, &rev.ActivityID, &rev.UserID, &rev.Rating,
            &rev.Comment, &rev.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, rev)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// HasCompletedReservation reports whether the user holds a successful
// reservation on a past event of the activity.  Only such users may
// review it.
func (r *ReviewRepo) HasCompletedReservation(ctx context.Context, activityID, userID uint64) (bool, error) {
    const q = `SELECT 1
        FROM reservations res
        JOIN events e ON e.id = res.event_id
        WHERE res.user_id = ? AND e.activity_id = ? AND res.state = ? AND e.date < NOW()
        LIMIT 1`
    var one int
    err := r.db.QueryRowContext(ctx, q, userID, activityID, model.ReservationSuccess).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}
