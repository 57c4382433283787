package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity that can authenticate and own items.
// This is a pure domain model with no database-specific dependencies or tags.
// PasswordHash and PasswordSalt never leave the process; the JSON shape below is
// the public projection returned by the API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	PasswordHash []byte    `json:"-"`
	PasswordSalt []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// GetID implements authz.Identified.
func (u *User) GetID() uuid.UUID { return u.ID }

// Elevated implements authz.Principal.
func (u *User) Elevated() bool { return u.IsSuperuser }

// Active implements authz.Principal.
func (u *User) Active() bool { return u.IsActive }

// UserCreate is the input accepted when an administrator creates a user.
// IsActive and IsSuperuser default to true/false when omitted.
type UserCreate struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser *bool  `json:"is_superuser"`
}

// UserRegister is the open-signup input. Registered users are always standard
// and active.
type UserRegister struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// UserUpdate is a partial update: nil fields keep their current value.
type UserUpdate struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// UserUpdateMe restricts self-service updates to profile fields.
type UserUpdateMe struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

// UpdatePassword carries a password change request for the current user.
type UpdatePassword struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
