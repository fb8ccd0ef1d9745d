package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"

    "github.com/rutaviva/tour-booking/internal/model"
)

// ActivityRepo provides CRUD operations for activities.  Activities own
// their events and reviews; those live in EventRepo and ReviewRepo but
// are only ever addressed through their activity.  All timestamp fields
// are stored in UTC.
type ActivityRepo struct {
    db *sql.DB
}

// NewActivityRepo returns a new ActivityRepo bound to the given database.
func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// DB exposes the underlying handle for transaction orchestration.
func (r *ActivityRepo) DB() *sql.DB { return r.db }

const activityColumns = `id, owner_id, name, location, duration_min, description,
    accessible, pets_allowed, category, state, images, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }) (model.Activity, error) {
    var a model.Activity
    var images sql.NullString
    err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Location, &a.DurationMin,
        &a.Description, &a.Accessible, &a.PetsAllowed, &a.Category, &a.State,
        &images, &a.CreatedAt, &a.UpdatedAt)
    if err != nil {
        return model.Activity{}, err
    }
    if images.Valid && strings.TrimSpace(images.String) != "" {
        // images is a JSON array column; a corrupt value is treated as empty
        // rather than failing the whole read
        _ = json.Unmarshal([]byte(images.String), &a.Images)
    }
    return a, nil
}

// Create inserts a new activity and populates its generated id.
func (r *ActivityRepo) Create(ctx context.Context, a *model.Activity) error {
    images, err := json.Marshal(a.Images)
    if err != nil {
        return err
    }
    const q = `INSERT INTO activities
        (owner_id, name, location, duration_min, description, accessible, pets_allowed, category, state, images)
        VALUES (?,?,?,?,?,?,?,?,?,?)`
    res, err := r.db.ExecContext(ctx, q, a.OwnerID, a.Name, a.Location, a.DurationMin,
        a.Description, a.Accessible, a.PetsAllowed, a.Category, a.State, string(images))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    a.ID = uint64(id)
    return nil
}

// GetByID loads one activity.  Returns ErrActivityNotFound when missing.
func (r *ActivityRepo) GetByID(ctx context.Context, id uint64) (model.Activity, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
    a, err := scanActivity(row)
    if err == sql.ErrNoRows {
        return model.Activity{}, ErrActivityNotFound
    }
    return a, err
}

// GetByEventID resolves the activity owning the given event.  Returns
// ErrActivityNotFound when the event does not exist.
func (r *ActivityRepo) GetByEventID(ctx context.Context, eventID uint64) (model.Activity, error) {
    const q = `SELECT a.id, a.owner_id, a.name, a.location, a.duration_min, a.description,
            a.accessible, a.pets_allowed, a.category, a.state, a.images, a.created_at, a.updated_at
        FROM activities a
        JOIN events e ON e.activity_id = a.id
        WHERE e.id = ?`
    row := r.db.QueryRowContext(ctx, q, eventID)
    a, err := scanActivity(row)
    if err == sql.ErrNoRows {
        return model.Activity{}, ErrActivityNotFound
    }
    return a, err
}

// Update rewrites the mutable fields of an activity.  State transitions
// also go through here; events keep their own state column.
func (r *ActivityRepo) Update(ctx context.Context, a *model.Activity) error {
    images, err := json.Marshal(a.Images)
    if err != nil {
        return err
    }
    const q = `UPDATE activities SET name=?, location=?, duration_min=?, description=?,
        accessible=?, pets_allowed=?, category=?, state=?, images=? WHERE id=?`
    res, err := r.db.ExecContext(ctx, q, a.Name, a.Location, a.DurationMin, a.Description,
        a.Accessible, a.PetsAllowed, a.Category, a.State, string(images), a.ID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrActivityNotFound
    }
    return nil
}

// ListByOwner returns all activities created by the given guide, newest
// first.
func (r *ActivityRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Activity, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+activityColumns+` FROM activities WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectActivities(rows)
}

// ListOpen returns all activities in OPEN state, optionally filtered by
// category, for the public browse endpoints.
func (r *ActivityRepo) ListOpen(ctx context.Context, category string) ([]model.Activity, error) {
    q := `SELECT ` + activityColumns + ` FROM activities WHERE state = ?`
    args := []any{model.ActivityOpen}
    if strings.TrimSpace(category) != "" {
        q += ` AND category = ?`
        args = append(args, strings.TrimSpace(category))
    }
    q += ` ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectActivities(rows)
}

func collectActivities(rows *sql.Rows) ([]model.Activity, error) {
    out := make([]model.Activity, 0)
    for rows.Next() {
        a, err := scanActivity(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
