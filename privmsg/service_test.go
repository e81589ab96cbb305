package privmsg

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
	"github.com/user/chathub-go/config"
	"github.com/user/chathub-go/friends"
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

func createUser(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var id int
	username := fmt.Sprintf("u%d", time.Now().UnixNano())
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (username, tag, password) VALUES ($1, '0000', 'x') RETURNING id`,
		username).Scan(&id)
	require.NoError(t, err)
	return id
}

func befriend(t *testing.T, svc *friends.Service, a, b int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.SendRequest(ctx, a, b))
	require.NoError(t, svc.Respond(ctx, a, b, true))
}

func newTestService(pool *pgxpool.Pool) (*Service, *friends.Service) {
	friendSvc := friends.NewService(pool)
	return NewService(pool, friendSvc, config.FeedConfig{DefaultLimit: 100, MaxLimit: 500}), friendSvc
}

func TestSendRequiresFriendship(t *testing.T) {
	pool := testPool(t)
	svc, _ := newTestService(pool)
	ann := createUser(t, pool)
	bob := createUser(t, pool)

	_, err := svc.Send(context.Background(), ann, bob, "hi")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFriends(err))

	// The rejection must leave no trace of the message.
	var count int
	err = pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM private_messages
		 WHERE sender_id = $1 AND receiver_id = $2`, ann, bob).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendPendingIsNotEnough(t *testing.T) {
	pool := testPool(t)
	svc, friendSvc := newTestService(pool)
	ctx := context.Background()
	ann := createUser(t, pool)
	bob := createUser(t, pool)

	require.NoError(t, friendSvc.SendRequest(ctx, ann, bob))

	_, err := svc.Send(ctx, ann, bob, "hi")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFriends(err))
}

func TestSendRejectsEmptyBodyAndSelf(t *testing.T) {
	pool := testPool(t)
	svc, _ := newTestService(pool)
	ann := createUser(t, pool)
	bob := createUser(t, pool)

	_, err := svc.Send(context.Background(), ann, bob, "  \t ")
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.EmptyBodyError))

	// Self is never a friend, so a self-send is refused the same way a
	// stranger-send is.
	_, err = svc.Send(context.Background(), ann, ann, "hi me")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFriends(err))
}

func TestSendAndHistory(t *testing.T) {
	pool := testPool(t)
	svc, friendSvc := newTestService(pool)
	ctx := context.Background()
	ann := createUser(t, pool)
	bob := createUser(t, pool)
	befriend(t, friendSvc, ann, bob)

	_, err := svc.Send(ctx, ann, bob, "first")
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob, ann, "second")
	require.NoError(t, err)
	_, err = svc.Send(ctx, ann, bob, "third")
	require.NoError(t, err)

	// Both participants see the same conversation, oldest first.
	for _, viewer := range []int{ann, bob} {
		other := ann + bob - viewer
		history, err := svc.History(ctx, viewer, other, 0)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "first", history[0].Body)
		assert.Equal(t, "second", history[1].Body)
		assert.Equal(t, "third", history[2].Body)
	}

	// A limit keeps the most recent messages, still in order.
	history, err := svc.History(ctx, ann, bob, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Body)
	assert.Equal(t, "third", history[1].Body)
}

func TestHistorySurvivesUnfriending(t *testing.T) {
	pool := testPool(t)
	svc, friendSvc := newTestService(pool)
	ctx := context.Background()
	ann := createUser(t, pool)
	bob := createUser(t, pool)
	befriend(t, friendSvc, ann, bob)

	_, err := svc.Send(ctx, ann, bob, "remember this")
	require.NoError(t, err)

	require.NoError(t, friendSvc.Remove(ctx, ann, bob))

	// Sending is now blocked, but the past conversation stays readable.
	_, err = svc.Send(ctx, ann, bob, "one more")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFriends(err))

	history, err := svc.History(ctx, ann, bob, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "remember this", history[0].Body)
}

func TestLastPerFriend(t *testing.T) {
	pool := testPool(t)
	svc, friendSvc := newTestService(pool)
	ctx := context.Background()
	ann := createUser(t, pool)
	bob := createUser(t, pool)
	cat := createUser(t, pool)
	dan := createUser(t, pool)
	befriend(t, friendSvc, ann, bob)
	befriend(t, friendSvc, ann, cat)
	befriend(t, friendSvc, ann, dan)

	_, err := svc.Send(ctx, ann, bob, "bob old")
	require.NoError(t, err)
	latestBob, err := svc.Send(ctx, bob, ann, "bob new")
	require.NoError(t, err)
	latestCat, err := svc.Send(ctx, cat, ann, "cat only")
	require.NoError(t, err)
	// Dan never exchanged a message with Ann.

	last, err := svc.LastPerFriend(ctx, ann)
	require.NoError(t, err)

	byFriend := map[int]LastMessage{}
	for _, lm := range last {
		byFriend[lm.FriendID] = lm
	}

	require.Contains(t, byFriend, bob)
	assert.Equal(t, latestBob.ID, byFriend[bob].Message.ID)
	assert.Equal(t, "bob new", byFriend[bob].Message.Body)

	require.Contains(t, byFriend, cat)
	assert.Equal(t, latestCat.ID, byFriend[cat].Message.ID)

	assert.NotContains(t, byFriend, dan)
}

func TestLastPerFriendExcludesFormerFriends(t *testing.T) {
	pool := testPool(t)
	svc, friendSvc := newTestService(pool)
	ctx := context.Background()
	ann := createUser(t, pool)
	bob := createUser(t, pool)
	befriend(t, friendSvc, ann, bob)

	_, err := svc.Send(ctx, ann, bob, "hello")
	require.NoError(t, err)
	require.NoError(t, friendSvc.Remove(ctx, ann, bob))

	last, err := svc.LastPerFriend(ctx, ann)
	require.NoError(t, err)
	for _, lm := range last {
		assert.NotEqual(t, bob, lm.FriendID)
	}
}
