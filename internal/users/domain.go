package users

import "time"

// User represents a user account for management, joined with the role
// assigned through the user's profile.
type User struct {
	ID        int64
	Email     string
	Name      string
	IsActive  bool
	RoleID    *int64
	RoleName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
