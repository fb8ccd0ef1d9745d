package model

import "time"

// ActivityState enumerates the lifecycle states of an activity.  STOPPED is
// a temporary pause set by the owning guide; CANCELLED is terminal.
type ActivityState string

const (
    ActivityOpen      ActivityState = "OPEN"
    ActivityStopped   ActivityState = "STOPPED"
    ActivityCancelled ActivityState = "CANCELLED"
)

// Activity represents a bookable tour or experience offering.  It is the
// container for Events (concrete scheduled occurrences) and Reviews.  Both
// are owned by composition: they are only ever addressed through their
// activity and are never moved to another one.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – guide who created and manages the activity.
//  Name        – display name of the activity.
//  Location    – where the activity takes place.
//  DurationMin – duration of one event in minutes.
//  Description – long description, markdown accepted.
//  Accessible  – whether the activity is wheelchair accessible.
//  PetsAllowed – whether pets may join.
//  Category    – free-form category label (e.g. "hiking").
//  State       – OPEN, STOPPED or CANCELLED.
//  Images      – image URLs, stored as a JSON array column.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Activity struct {
    ID          uint64        // activities.id
    OwnerID     uint64        // activities.owner_id
    Name        string        // activities.name
    Location    string        // activities.location
    DurationMin uint32        // activities.duration_min
    Description string        // activities.description
    Accessible  bool          // activities.accessible
    PetsAllowed bool          // activities.pets_allowed
    Category    string        // activities.category
    State       ActivityState // activities.state
    Images      []string      // activities.images (JSON)
    CreatedAt   time.Time     // activities.created_at
    UpdatedAt   time.Time     // activities.updated_at

    Events  []Event  // embedded events (optional, query dependent)
    Reviews []Review // embedded reviews (optional, query dependent)
}

// Review is a tourist's written feedback on an activity.
//
// Fields:
//  ID         – primary key identifier.
//  ActivityID – activity being reviewed.
//  UserID     – author of the review.
//  Rating     – 1..5 stars.
//  Comment    – free text body.
//  CreatedAt  – creation timestamp.
type Review struct {
    ID         uint64    // reviews.id
    ActivityID uint64    // reviews.activity_id
    UserID     uint64    // reviews.user_id
    Rating     uint8     // reviews.rating
    Comment    string    // reviews.comment
    CreatedAt  time.Time // reviews.created_at
}
