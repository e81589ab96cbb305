// Data transfer objects for the auth endpoints.
package auth

import "time"

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=32" example:"ann"`
	Password string `json:"password" validate:"required,min=6" example:"strongpassword123"`
	Email    string `json:"email" validate:"omitempty,email" example:"ann@example.com"`
}

// LoginRequest represents the login request payload. Tag is optional: when
// omitted, every account with the display name is checked for a password
// match and the unique match wins.
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"ann"`
	Tag      string `json:"tag" validate:"omitempty,len=4,numeric" example:"0417"`
	Password string `json:"password" validate:"required" example:"strongpassword123"`
}

// RegisterResponse is returned on successful registration. The assigned tag
// is part of the user's identity from this point on.
type RegisterResponse struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Tag       string    `json:"tag"`
	Handle    string    `json:"handle" example:"ann#0417"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse carries the access/refresh token pair issued on login.
type TokenResponse struct {
	UserID       int    `json:"user_id"`
	Handle       string `json:"handle" example:"ann#0417"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int64  `json:"expires_in" example:"3600"`
}

// RefreshTokenRequest represents the token refresh request payload.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
