// Data transfer objects for the users endpoints.
package users

import "time"

// UserSummary is the admin-listing row: everything about a user except
// credentials.
type UserSummary struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Tag          string    `json:"tag"`
	Handle       string    `json:"handle" example:"ann#0417"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// ResolveResponse is returned when a handle is resolved to a user.
type ResolveResponse struct {
	ID     int    `json:"id"`
	Handle string `json:"handle" example:"ann#0417"`
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
}
