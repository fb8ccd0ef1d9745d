package model

import "time"

// Role names stored in the users.role column.  Tourists book reservations,
// guides lead events and manage activities, admins see the dashboard.
const (
    RoleTourist = "TOURIST"
    RoleGuide   = "GUIDE"
    RoleAdmin   = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Reservations reference their owner through reservations.user_id;
// the slice here is populated only by queries that need the full aggregate.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name shown on reservations and reviews.
//  Telephone    – optional contact number.
//  Role         – one of TOURIST, GUIDE, ADMIN.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Name         string    // users.name
    Telephone    string    // users.telephone
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at

    Reservations []Reservation // reservations owned by this user (optional)
}
