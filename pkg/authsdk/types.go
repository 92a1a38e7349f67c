package authsdk

import (
	"time"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// Envelope wraps every successful response body.
type Envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitzero"`
}

// Success wraps data in a success envelope.
func Success[T any](data T) Envelope[T] {
	return Envelope[T]{Status: StatusSuccess, Data: data}
}

// MessageResponse is a success envelope without data.
type MessageResponse = Envelope[struct{}]

// SuccessMessage builds a data-less success envelope.
func SuccessMessage(msg string) MessageResponse {
	return MessageResponse{Status: StatusSuccess, Message: msg}
}

// ============================================================================
// Users
// ============================================================================

// User is the public view of an account. Password hashes and verification
// digests never leave the server.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserData is the payload of register and details responses.
type UserData struct {
	User User `json:"user"`
}

// UserListData is the payload of the admin listing.
type UserListData struct {
	Results int    `json:"results"`
	Users   []User `json:"users"`
}

// ============================================================================
// Requests
// ============================================================================

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the body of POST /api/auth/forgotpassword.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of PATCH /api/auth/resetpassword/{token}.
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenData is returned by login and refresh. Refresh leaves RefreshToken
// empty since refresh tokens are not rotated.
type TokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`
}

// ============================================================================
// Service
// ============================================================================

// HealthResponse is served by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// JWKSResponse is the published access token key set.
type JWKSResponse = jwtx.JWKS
