package domain

import (
	"context"
	"time"
)

// Role determines what a user may do. Anonymous visitors have no User at all.
type Role string

const (
	RoleUser      Role = "user"
	RoleArchitect Role = "architect"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleArchitect, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered user of the application.
type User struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanEditDesign reports whether the user may modify the given design.
// Admins may edit any design; architects only their own.
func (u *User) CanEditDesign(d *Design) bool {
	if u == nil || d == nil {
		return false
	}
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleArchitect:
		return d.ArchitectID == u.ID
	}
	return false
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateRole(ctx context.Context, id int64, role Role) error
}
