// Package auth implements the identity store: registration with
// discriminator-tag assignment, credential checks, and JWT session tokens.
package auth

import "time"

// User represents a registered user. Identity is the (Username, Tag) pair;
// the numeric ID is the immutable internal reference.
type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Tag            string    `json:"tag"`
	Email          string    `json:"email,omitempty"`
	HashedPassword string    `json:"-"` // never exposed or logged
	CreatedAt      time.Time `json:"created_at"`
	LastActivity   time.Time `json:"last_activity"`
}

// Handle returns the user-facing "name#tag" identifier.
func (u *User) Handle() string {
	return u.Username + HandleSeparator + u.Tag
}
