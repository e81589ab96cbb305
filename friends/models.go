// Package friends implements the friendship state machine. Each ordered
// (requester, addressee) pair has at most one edge moving through
// none -> pending -> accepted | rejected, with explicit removal deleting an
// accepted edge. Friendship itself is the symmetric predicate "an accepted
// edge exists between the pair in either direction".
package friends

import "time"

// Status is the lifecycle state of a friend edge.
type Status string

// Edge states. Rejected edges are kept: they block a repeat request in the
// same direction, which is how the audit trail of who asked whom survives.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Edge is a directional friend-request record and its resolution state.
type Edge struct {
	ID          int        `json:"id"`
	RequesterID int        `json:"requester_id"`
	AddresseeID int        `json:"addressee_id"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Friend is one entry of a user's friend list.
type Friend struct {
	ID     int    `json:"id"`
	Handle string `json:"handle" example:"bob#0219"`
}

// PendingRequest is a friend request awaiting the addressee's response.
type PendingRequest struct {
	RequesterID int       `json:"requester_id"`
	Handle      string    `json:"handle" example:"ann#0417"`
	RequestedAt time.Time `json:"requested_at"`
}

// OnlineFriend is a friend currently within the presence window.
type OnlineFriend struct {
	ID           int       `json:"id"`
	Handle       string    `json:"handle" example:"bob#0219"`
	LastActivity time.Time `json:"last_activity"`
}
