package feed

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/auth"
	"github.com/user/chathub-go/config"
)

const pgForeignKeyViolation = "23503"

// Service provides the shared message feed: appending entries and reading
// them back incrementally from a client-held cursor.
type Service struct {
	dbPool     *pgxpool.Pool
	feedConfig config.FeedConfig
}

// NewService creates a new feed service.
func NewService(dbPool *pgxpool.Pool, feedConfig config.FeedConfig) *Service {
	return &Service{dbPool: dbPool, feedConfig: feedConfig}
}

// Post appends a message to the feed and returns it with its assigned ID.
// Whitespace-only bodies are rejected; the body is stored as given.
func (s *Service) Post(ctx context.Context, senderID int, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperror.NewEmptyBodyError("message body must not be empty")
	}

	var username, tag string
	err := s.dbPool.QueryRow(ctx,
		`SELECT username, tag FROM users WHERE id = $1`, senderID,
	).Scan(&username, &tag)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("sender not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to look up sender", err)
	}

	msg := &Message{
		SenderID: senderID,
		Sender:   username + auth.HandleSeparator + tag,
		Body:     body,
	}
	err = s.dbPool.QueryRow(ctx,
		`INSERT INTO messages (sender_id, body) VALUES ($1, $2) RETURNING id, created_at`,
		senderID, body,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, apperror.NewNotFoundError("sender not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to post message", err)
	}
	return msg, nil
}

// Since returns messages with an ID strictly greater than cursor, oldest
// first. A limit of 0 applies the configured default; the configured maximum
// caps it either way. Clients sync by feeding back the largest ID they saw.
func (s *Service) Since(ctx context.Context, cursor int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = s.feedConfig.DefaultLimit
	}
	if limit > s.feedConfig.MaxLimit {
		limit = s.feedConfig.MaxLimit
	}

	rows, err := s.dbPool.Query(ctx, `
		SELECT m.id, m.sender_id, u.username, u.tag, m.body, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id > $1
		ORDER BY m.id ASC
		LIMIT $2`,
		cursor, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query feed", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		var username, tag string
		if err := rows.Scan(&m.ID, &m.SenderID, &username, &tag, &m.Body, &m.CreatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan feed message", err)
		}
		m.Sender = username + auth.HandleSeparator + tag
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read feed rows", err)
	}
	return messages, nil
}
