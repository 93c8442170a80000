package dto

// SignupReq represents the request body for the /auth/register endpoint.
// Role and password length are checked by the usecase so that the reserved admin role
// and short passwords are reported with the same INVALID_REQUEST code.
type SignupReq struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required"`
	Role        string   `json:"role" binding:"required"`
	Formation   string   `json:"formation"`
	Disciplines []string `json:"disciplines"`
}
