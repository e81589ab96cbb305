package users

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/chathub-go/apperror"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createUser(t *testing.T, pool *pgxpool.Pool, tag string) (int, string) {
	t.Helper()
	var id int
	username := fmt.Sprintf("u%d", time.Now().UnixNano())
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (username, tag, password) VALUES ($1, $2, 'x') RETURNING id`,
		username, tag).Scan(&id)
	require.NoError(t, err)
	return id, username
}

func TestLookup(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool)
	id, username := createUser(t, pool, "0007")

	u, err := svc.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, username, u.Username)
	assert.Equal(t, "0007", u.Tag)
	assert.Equal(t, username+"#0007", u.Handle())
	assert.Empty(t, u.HashedPassword, "lookup must not load credentials")

	_, err = svc.Lookup(context.Background(), 1<<30)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestResolveHandle(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool)
	ctx := context.Background()
	id, username := createUser(t, pool, "0042")

	u, err := svc.ResolveHandle(ctx, username+"#0042")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	// Same name, different tag: a different (absent) identity.
	_, err = svc.ResolveHandle(ctx, username+"#0043")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.ResolveHandle(ctx, username)
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.MalformedHandleError))
}

func TestUpdateProfileEmail(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool)
	ctx := context.Background()
	id, _ := createUser(t, pool, "0001")

	email := "Ann@Example.com"
	u, err := svc.UpdateProfile(ctx, id, &UpdateProfileRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)

	// An empty pointer value clears the address.
	empty := ""
	u, err = svc.UpdateProfile(ctx, id, &UpdateProfileRequest{Email: &empty})
	require.NoError(t, err)
	assert.Empty(t, u.Email)

	// No fields set: a no-op that still returns the current record.
	u, err = svc.UpdateProfile(ctx, id, &UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = svc.UpdateProfile(ctx, 1<<30, &UpdateProfileRequest{Email: &email})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
