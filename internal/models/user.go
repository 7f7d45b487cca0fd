package models

import (
	"time"
)

// Account statuses as stored in the users table
const (
	UserStatusPending  = "PENDING"
	UserStatusActive   = "ACTIVE"
	UserStatusDisabled = "DISABLED"
	UserStatusRejected = "REJECTED"
)

type User struct {
	ID             int64
	CreatedAt      time.Time
	Username       string
	Email          string
	HashedPassword string
	IsAdmin        bool

	// Status and IsActive are related but distinct flags: both must allow
	// authentication for a login or refresh to succeed
	Status   string
	IsActive bool

	ApprovedAt *time.Time
	ApprovedBy *int64

	LastLoginAt  *time.Time
	LastLogoutAt *time.Time
}

// CanAuthenticate reports whether the account may receive tokens
func (u User) CanAuthenticate() bool {
	return u.Status == UserStatusActive && u.IsActive
}
