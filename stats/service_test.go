package stats

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestSnapshotCounts(t *testing.T) {
	pool := testPool(t)
	svc := NewService(pool, 5*time.Minute)
	ctx := context.Background()

	before, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	username := fmt.Sprintf("u%d", time.Now().UnixNano())
	var id int
	err = pool.QueryRow(ctx,
		`INSERT INTO users (username, tag, password) VALUES ($1, '0000', 'x') RETURNING id`,
		username).Scan(&id)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		`INSERT INTO messages (sender_id, body) VALUES ($1, 'hello')`, id)
	require.NoError(t, err)

	after, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	assert.Greater(t, after.Users, before.Users)
	assert.Greater(t, after.Messages, before.Messages)
	// The fresh user counts as online within any reasonable window.
	assert.GreaterOrEqual(t, after.OnlineUsers, 1)
}
