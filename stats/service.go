package stats

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/chathub-go/apperror"
)

// Totals is a point-in-time snapshot of overall service activity.
type Totals struct {
	Users        int `json:"users"`
	Messages     int `json:"messages"`
	OnlineUsers  int `json:"online_users"`
	Friendships  int `json:"friendships"`
	PrivateCount int `json:"private_messages"`
	PendingCount int `json:"pending_requests"`
}

// Service computes aggregate counters for the status endpoint and the
// periodic sampler.
type Service struct {
	dbPool       *pgxpool.Pool
	onlineWindow time.Duration
}

// NewService creates a new stats service. onlineWindow bounds which users
// count as online.
func NewService(dbPool *pgxpool.Pool, onlineWindow time.Duration) *Service {
	return &Service{dbPool: dbPool, onlineWindow: onlineWindow}
}

// Snapshot gathers all counters in a single round trip.
func (s *Service) Snapshot(ctx context.Context) (*Totals, error) {
	var t Totals
	err := s.dbPool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM users WHERE last_activity >= now() - $1::interval),
			(SELECT COUNT(*) FROM friends WHERE status = 'accepted'),
			(SELECT COUNT(*) FROM private_messages),
			(SELECT COUNT(*) FROM friends WHERE status = 'pending')`,
		s.onlineWindow,
	).Scan(&t.Users, &t.Messages, &t.OnlineUsers, &t.Friendships, &t.PrivateCount, &t.PendingCount)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to gather stats", err)
	}
	return &t, nil
}
