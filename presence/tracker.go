// Package presence derives who is online from last-activity timestamps.
// There is no push or expiry machinery: a user is online iff their last
// recorded activity falls within the caller-supplied window at read time.
package presence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/chathub-go/apperror"
)

// OnlineUser is one row of the online listing.
type OnlineUser struct {
	ID           int       `json:"id"`
	Handle       string    `json:"handle" example:"ann#0417"`
	LastActivity time.Time `json:"last_activity"`
}

// Tracker records and derives user activity.
type Tracker struct {
	db *pgxpool.Pool
}

// NewTracker creates a new presence Tracker.
func NewTracker(db *pgxpool.Pool) *Tracker {
	return &Tracker{db: db}
}

// Touch sets the user's last activity to now. Idempotent; touching an
// unknown user is a no-op.
func (t *Tracker) Touch(ctx context.Context, userID int) error {
	_, err := t.db.Exec(ctx,
		`UPDATE users SET last_activity = now() WHERE id = $1`, userID)
	if err != nil {
		return apperror.NewDatabaseError("failed to record activity", err)
	}
	return nil
}

// IsOnline reports whether the user's last activity is within the window.
// An unknown user is offline.
func (t *Tracker) IsOnline(ctx context.Context, userID int, window time.Duration) (bool, error) {
	var online bool
	err := t.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE id = $1 AND last_activity >= now() - $2::interval
		)`, userID, window).Scan(&online)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to derive presence", err)
	}
	return online, nil
}

// ListOnline returns every user active within the window, most recently
// active first.
func (t *Tracker) ListOnline(ctx context.Context, window time.Duration) ([]OnlineUser, error) {
	rows, err := t.db.Query(ctx, `
		SELECT id, username || '#' || tag, last_activity
		FROM users
		WHERE last_activity >= now() - $1::interval
		ORDER BY last_activity DESC`, window)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list online users", err)
	}
	defer rows.Close()

	online := []OnlineUser{}
	for rows.Next() {
		var u OnlineUser
		if err := rows.Scan(&u.ID, &u.Handle, &u.LastActivity); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan online user", err)
		}
		online = append(online, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate online users", err)
	}
	return online, nil
}
