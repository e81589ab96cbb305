// Package users provides user lookup and profile management on top of the
// identity store: resolving handles to users, fetching records by ID, the
// admin listing, and profile updates.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/auth"
)

// Service provides user lookup and profile operations.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new user Service.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

const userColumns = `id, username, tag, COALESCE(email, ''), created_at, last_activity`

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Username, &u.Tag, &u.Email, &u.CreatedAt, &u.LastActivity)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Lookup fetches a user record by its immutable ID.
func (s *Service) Lookup(ctx context.Context, userID int) (*auth.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d not found", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return u, nil
}

// ResolveHandle resolves a "name#tag" handle to the user it names.
func (s *Service) ResolveHandle(ctx context.Context, handle string) (*auth.User, error) {
	username, tag, err := auth.ParseHandle(handle)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND tag = $2`, username, tag))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("no user with handle %q", handle), nil)
		}
		return nil, apperror.NewDatabaseError("failed to resolve handle", err)
	}
	return u, nil
}

// ListAll returns every user, ordered by ID, without credentials. Serves the
// admin listing.
func (s *Service) ListAll(ctx context.Context) ([]UserSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	defer rows.Close()

	summaries := []UserSummary{}
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Tag, &u.Email, &u.CreatedAt, &u.LastActivity); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan user row", err)
		}
		summaries = append(summaries, UserSummary{
			ID:           u.ID,
			Username:     u.Username,
			Tag:          u.Tag,
			Handle:       u.Handle(),
			Email:        u.Email,
			CreatedAt:    u.CreatedAt,
			LastActivity: u.LastActivity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate user rows", err)
	}
	return summaries, nil
}

// UpdateProfile updates the mutable profile fields of a user. Only provided
// fields change.
func (s *Service) UpdateProfile(ctx context.Context, userID int, req *UpdateProfileRequest) (*auth.User, error) {
	if _, err := s.Lookup(ctx, userID); err != nil {
		return nil, err
	}

	var setClauses []string
	var args []interface{}
	argID := 1

	if req.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = NULLIF($%d, '')", argID))
		args = append(args, strings.ToLower(*req.Email))
		argID++
	}

	if len(setClauses) == 0 {
		return s.Lookup(ctx, userID)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argID)
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return nil, apperror.NewDatabaseError("failed to update profile", err)
	}

	return s.Lookup(ctx, userID)
}
