package privmsg

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/auth"
	"github.com/user/chathub-go/config"
	"github.com/user/chathub-go/friends"
)

// Service provides friend-gated direct messaging. Sends are committed in the
// same transaction as the friendship check, so a message can never land
// after the friendship it rode on was removed.
type Service struct {
	dbPool     *pgxpool.Pool
	friends    *friends.Service
	feedConfig config.FeedConfig
}

// NewService creates a new private message service.
func NewService(dbPool *pgxpool.Pool, friendsService *friends.Service, feedConfig config.FeedConfig) *Service {
	return &Service{dbPool: dbPool, friends: friendsService, feedConfig: feedConfig}
}

// Send delivers a direct message from sender to receiver. The pair must be
// friends at commit time: the friendship edge is share-locked for the
// duration of the transaction, so a concurrent removal either lands before
// the check (send rejected) or after the commit (message delivered).
func (s *Service) Send(ctx context.Context, senderID, receiverID int, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperror.NewEmptyBodyError("message body must not be empty")
	}
	// A user is never their own friend, so self-sends fail the same gate
	// as messaging a stranger.
	if senderID == receiverID {
		return nil, apperror.NewNotFriendsError("you can only message friends")
	}

	tx, err := s.dbPool.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	accepted, err := s.friends.IsFriendInTx(ctx, tx, senderID, receiverID, true)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, apperror.NewNotFriendsError("you can only message friends")
	}

	msg := &Message{SenderID: senderID, ReceiverID: receiverID, Body: body}
	err = tx.QueryRow(ctx,
		`INSERT INTO private_messages (sender_id, receiver_id, body)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		senderID, receiverID, body,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to send private message", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit private message", err)
	}
	return msg, nil
}

// History returns the most recent messages between the caller and the other
// user, oldest first. History is readable even after the friendship ends;
// only sending is gated. A limit of 0 applies the configured default.
func (s *Service) History(ctx context.Context, userID, otherID, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = s.feedConfig.DefaultLimit
	}
	if limit > s.feedConfig.MaxLimit {
		limit = s.feedConfig.MaxLimit
	}

	rows, err := s.dbPool.Query(ctx, `
		SELECT id, sender_id, receiver_id, body, created_at FROM (
			SELECT id, sender_id, receiver_id, body, created_at
			FROM private_messages
			WHERE (sender_id = $1 AND receiver_id = $2)
			   OR (sender_id = $2 AND receiver_id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC, id ASC`,
		userID, otherID, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query private messages", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.CreatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan private message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read private message rows", err)
	}
	return messages, nil
}

// LastPerFriend returns, for each current friend the caller has exchanged
// messages with, the single most recent message of that conversation.
func (s *Service) LastPerFriend(ctx context.Context, userID int) ([]LastMessage, error) {
	rows, err := s.dbPool.Query(ctx, `
		SELECT DISTINCT ON (t.partner)
			t.partner, u.username, u.tag,
			t.id, t.sender_id, t.receiver_id, t.body, t.created_at
		FROM (
			SELECT pm.id, pm.sender_id, pm.receiver_id, pm.body, pm.created_at,
				CASE WHEN pm.sender_id = $1 THEN pm.receiver_id ELSE pm.sender_id END AS partner
			FROM private_messages pm
			WHERE pm.sender_id = $1 OR pm.receiver_id = $1
		) t
		JOIN friends f ON f.status = $2
			AND ((f.requester_id = $1 AND f.addressee_id = t.partner)
			  OR (f.requester_id = t.partner AND f.addressee_id = $1))
		JOIN users u ON u.id = t.partner
		ORDER BY t.partner, t.created_at DESC, t.id DESC`,
		userID, friends.StatusAccepted)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query last messages", err)
	}
	defer rows.Close()

	last := []LastMessage{}
	for rows.Next() {
		var lm LastMessage
		var username, tag string
		err := rows.Scan(&lm.FriendID, &username, &tag,
			&lm.Message.ID, &lm.Message.SenderID, &lm.Message.ReceiverID,
			&lm.Message.Body, &lm.Message.CreatedAt)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan last message", err)
		}
		lm.Handle = username + auth.HandleSeparator + tag
		last = append(last, lm)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read last message rows", err)
	}
	return last, nil
}
