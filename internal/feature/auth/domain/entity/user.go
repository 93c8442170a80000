// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// Role is the kind of account a user registered as.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	// RoleAdmin is reserved. It cannot be chosen at registration and no route grants it anything.
	RoleAdmin Role = "admin"
)

// Registrable reports whether the role may be chosen at registration.
func (r Role) Registrable() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User represents a registered user in the system.
// It contains authentication credentials and the profile shown to other users.
type User struct {
	// ID is the unique identifier for the user. It is assigned by the store on creation and never changes.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is the user's email address used for authentication.
	// It must be unique across all users, regardless of role.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// It is never serialised.
	PasswordHash string `json:"-"`

	// Role is the role the user registered as.
	Role Role `json:"role"`

	// Formation, Disciplines, Bio and ProfileImage are optional profile attributes.
	Formation    string   `json:"formation,omitempty"`
	Disciplines  []string `json:"disciplines,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	ProfileImage string   `json:"profileImage,omitempty"`

	// CreatedAt is set once at registration.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the profile was last updated.
	UpdatedAt time.Time `json:"updatedAt"`

	// Demo marks accounts provisioned by demo login. Only these may be entered without a password.
	Demo bool `json:"-"`
}
