package feed

import "time"

// Message is a single entry in the shared feed, joined with its sender's
// handle so clients can render it without a second lookup.
type Message struct {
	ID        int64     `json:"id"`
	SenderID  int       `json:"sender_id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
