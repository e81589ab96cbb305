package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/chathub-go/apperror"
)

// Service provides friendship state transitions and symmetric reads.
// Transitions are serialized per ordered pair by the (requester_id,
// addressee_id) unique constraint plus single-statement conditional updates,
// so two concurrent responders cannot both resolve the same request.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new friendship Service.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// SendRequest creates a pending edge from requester to addressee.
// Rejected when the same-direction edge already exists in any state, or when
// the pair is already friends through the reverse direction.
func (s *Service) SendRequest(ctx context.Context, requesterID, addresseeID int) error {
	if requesterID == addresseeID {
		return apperror.NewAlreadySelfError("you cannot add yourself as a friend")
	}

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, addresseeID).Scan(&exists)
	if err != nil {
		return apperror.NewDatabaseError("failed to look up addressee", err)
	}
	if !exists {
		return apperror.NewNotFoundError(fmt.Sprintf("user %d not found", addresseeID), nil)
	}

	var sameDirection bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friends WHERE requester_id = $1 AND addressee_id = $2
		)`, requesterID, addresseeID).Scan(&sameDirection)
	if err != nil {
		return apperror.NewDatabaseError("failed to check existing request", err)
	}
	if sameDirection {
		return apperror.NewDuplicateRequestError("friend request already sent or relationship exists")
	}

	accepted, err := s.IsFriend(ctx, requesterID, addresseeID)
	if err != nil {
		return err
	}
	if accepted {
		return apperror.NewAlreadyFriendsError("you are already friends")
	}

	// The unique constraint is the authoritative guard against a concurrent
	// duplicate slipping past the check above.
	tag, err := s.db.Exec(ctx, `
		INSERT INTO friends (requester_id, addressee_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (requester_id, addressee_id) DO NOTHING`,
		requesterID, addresseeID, StatusPending)
	if err != nil {
		return apperror.NewDatabaseError("failed to create friend request", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewDuplicateRequestError("friend request already sent or relationship exists")
	}
	return nil
}

// Respond resolves a pending request for the exact ordered pair. The
// conditional update is a single statement, so of two concurrent responses
// only the first finds the edge pending.
func (s *Service) Respond(ctx context.Context, requesterID, addresseeID int, accept bool) error {
	status := StatusRejected
	if accept {
		status = StatusAccepted
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE friends
		SET status = $3, responded_at = now()
		WHERE requester_id = $1 AND addressee_id = $2 AND status = $4`,
		requesterID, addresseeID, status, StatusPending)
	if err != nil {
		return apperror.NewDatabaseError("failed to respond to friend request", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNoSuchRequestError("no pending friend request found")
	}
	return nil
}

// IsFriend reports whether an accepted edge joins the pair in either
// direction.
func (s *Service) IsFriend(ctx context.Context, a, b int) (bool, error) {
	var accepted bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friends
			WHERE ((requester_id = $1 AND addressee_id = $2)
			    OR (requester_id = $2 AND addressee_id = $1))
			  AND status = $3
		)`, a, b, StatusAccepted).Scan(&accepted)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to check friendship", err)
	}
	return accepted, nil
}

// IsFriendInTx is the friendship guard for callers that must tie the check
// to a write in the same transaction. With lock set it takes FOR SHARE on
// the accepted edge, so a concurrent removal serializes behind the caller's
// transaction instead of racing it.
func (s *Service) IsFriendInTx(ctx context.Context, tx pgx.Tx, a, b int, lock bool) (bool, error) {
	query := `
		SELECT id FROM friends
		WHERE ((requester_id = $1 AND addressee_id = $2)
		    OR (requester_id = $2 AND addressee_id = $1))
		  AND status = $3`
	if lock {
		query += ` FOR SHARE`
	}

	var edgeID int
	err := tx.QueryRow(ctx, query, a, b, StatusAccepted).Scan(&edgeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewDatabaseError("failed to check friendship", err)
	}
	return true, nil
}

// ListFriends returns the union of both edge directions filtered to
// accepted, ordered by friend ID.
func (s *Service) ListFriends(ctx context.Context, userID int) ([]Friend, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.username || '#' || u.tag
		FROM friends f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1)
		  AND f.status = $2
		ORDER BY u.id`, userID, StatusAccepted)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list friends", err)
	}
	defer rows.Close()

	friends := []Friend{}
	for rows.Next() {
		var f Friend
		if err := rows.Scan(&f.ID, &f.Handle); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan friend row", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate friend rows", err)
	}
	return friends, nil
}

// ListPending returns the requests currently awaiting userID's response,
// oldest first.
func (s *Service) ListPending(ctx context.Context, userID int) ([]PendingRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.requester_id, u.username || '#' || u.tag, f.requested_at
		FROM friends f
		JOIN users u ON u.id = f.requester_id
		WHERE f.addressee_id = $1 AND f.status = $2
		ORDER BY f.requested_at`, userID, StatusPending)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list pending requests", err)
	}
	defer rows.Close()

	pending := []PendingRequest{}
	for rows.Next() {
		var p PendingRequest
		if err := rows.Scan(&p.RequesterID, &p.Handle, &p.RequestedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan pending request", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate pending requests", err)
	}
	return pending, nil
}

// Remove deletes the accepted edge between the pair in whichever direction
// it exists. Idempotent: removing an absent friendship is not an error.
func (s *Service) Remove(ctx context.Context, userID, friendID int) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM friends
		WHERE ((requester_id = $1 AND addressee_id = $2)
		    OR (requester_id = $2 AND addressee_id = $1))
		  AND status = $3`, userID, friendID, StatusAccepted)
	if err != nil {
		return apperror.NewDatabaseError("failed to remove friend", err)
	}
	return nil
}

// ListOnlineFriends returns the user's friends active within the window,
// most recently active first.
func (s *Service) ListOnlineFriends(ctx context.Context, userID int, window time.Duration) ([]OnlineFriend, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.username || '#' || u.tag, u.last_activity
		FROM friends f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1)
		  AND f.status = $2
		  AND u.last_activity >= now() - $3::interval
		ORDER BY u.last_activity DESC`, userID, StatusAccepted, window)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list online friends", err)
	}
	defer rows.Close()

	online := []OnlineFriend{}
	for rows.Next() {
		var f OnlineFriend
		if err := rows.Scan(&f.ID, &f.Handle, &f.LastActivity); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan online friend", err)
		}
		online = append(online, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate online friends", err)
	}
	return online, nil
}

// ListAllPending returns every pending request in the system, oldest first.
// An operator-level read, not scoped to any user.
func (s *Service) ListAllPending(ctx context.Context) ([]Edge, error) {
	return s.listEdges(ctx, StatusPending, `ORDER BY requested_at, id`)
}

// ListAllFriendships returns every accepted edge in the system, most
// recently accepted first. An operator-level read, not scoped to any user.
func (s *Service) ListAllFriendships(ctx context.Context) ([]Edge, error) {
	return s.listEdges(ctx, StatusAccepted, `ORDER BY responded_at DESC, id DESC`)
}

func (s *Service) listEdges(ctx context.Context, status Status, order string) ([]Edge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, requester_id, addressee_id, status, requested_at, responded_at
		FROM friends
		WHERE status = $1 `+order, status)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list friend edges", err)
	}
	defer rows.Close()

	edges := []Edge{}
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.RequesterID, &e.AddresseeID, &e.Status,
			&e.RequestedAt, &e.RespondedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan friend edge", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate friend edges", err)
	}
	return edges, nil
}
