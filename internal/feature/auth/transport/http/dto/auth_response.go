package dto

import "dynamicpro_backend/internal/feature/auth/domain/entity"

// AuthRes is returned by login, register and demo login.
// entity.User never serialises its password hash.
type AuthRes struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
	Demo  bool         `json:"demo,omitempty"`
}

// UserRes is returned by /auth/verify.
type UserRes struct {
	User *entity.User `json:"user"`
	Demo bool         `json:"demo,omitempty"`
}
