package entity

import "time"

// Identity is the caller resolved from a verified bearer token.
// Role is the claim as it was when the token was issued; it may be stale.
// Authorization that depends on the current role must re-read the User.
type Identity struct {
	ID       string
	Email    string
	Role     Role
	IssuedAt time.Time
}
