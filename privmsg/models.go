package privmsg

import "time"

// Message is a single direct message between two users.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// LastMessage pairs a friend with the most recent direct message exchanged
// with them. Friends with no conversation yet are omitted.
type LastMessage struct {
	FriendID int     `json:"friend_id"`
	Handle   string  `json:"handle"`
	Message  Message `json:"message"`
}
