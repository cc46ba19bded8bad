package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the stored credential record: unique identifier, one-way password
// hash and the role set consulted on every authenticated request.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
