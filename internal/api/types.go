// Package api defines the JSON envelopes shared by every HTTP handler.
package api

// Machine-readable error codes returned alongside the human-readable message.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnavailable        = "UNAVAILABLE"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// DataResponse wraps a resource payload.
// Demo is set only while the server runs in demo mode.
type DataResponse struct {
	Data any  `json:"data"`
	Demo bool `json:"demo,omitempty"`
}

// NewError builds an ErrorResponse.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Message: message, Code: code}
}
