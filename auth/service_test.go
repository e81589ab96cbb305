package auth

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/chathub-go/apperror"
	"github.com/user/chathub-go/config"
)

func testService(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewService(pool, config.AuthConfig{
		JWTSecret:            "test-secret",
		AccessTokenDuration:  time.Minute,
		RefreshTokenDuration: time.Hour,
	})
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func TestRegisterAssignsDistinctTags(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	name := uniqueName("ann")

	first, err := svc.Register(ctx, RegisterRequest{Username: name, Password: "secret1"})
	require.NoError(t, err)
	second, err := svc.Register(ctx, RegisterRequest{Username: name, Password: "secret2"})
	require.NoError(t, err)

	// Same display name, distinct identities.
	assert.Equal(t, first.Username, second.Username)
	assert.NotEqual(t, first.Tag, second.Tag)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, first.Tag, 4)

	// The handle round-trips through the parser.
	username, tag, err := ParseHandle(first.Handle())
	require.NoError(t, err)
	assert.Equal(t, name, username)
	assert.Equal(t, first.Tag, tag)
}

func TestRegisterConcurrentSameName(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	name := uniqueName("swarm")

	const registrations = 32
	tags := make([]string, registrations)
	errs := make([]error, registrations)
	var wg sync.WaitGroup
	for i := 0; i < registrations; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user, err := svc.Register(ctx, RegisterRequest{
				Username: name,
				Password: fmt.Sprintf("secret%d", n),
			})
			if err != nil {
				errs[n] = err
				return
			}
			tags[n] = user.Tag
		}(i)
	}
	wg.Wait()

	// Tag collisions between racers are resolved by retrying, not by
	// surfacing an error to either caller.
	seen := make(map[string]struct{}, registrations)
	for i := 0; i < registrations; i++ {
		require.NoError(t, errs[i], "registration %d failed", i)
		require.Len(t, tags[i], 4)
		_, dup := seen[tags[i]]
		assert.False(t, dup, "tag %s assigned twice", tags[i])
		seen[tags[i]] = struct{}{}
	}
	assert.Len(t, seen, registrations)
}

func TestRegisterRejectsSeparatorInName(t *testing.T) {
	svc := testService(t)

	_, err := svc.Register(context.Background(),
		RegisterRequest{Username: "ann#ha", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidationError(err))
}

func TestRegisterNeverStoresPlaintext(t *testing.T) {
	svc := testService(t)
	name := uniqueName("ann")

	user, err := svc.Register(context.Background(),
		RegisterRequest{Username: name, Password: "secret1"})
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.HashedPassword)
	assert.NotEmpty(t, user.HashedPassword)
}

func TestAuthenticate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	name := uniqueName("ann")

	registered, err := svc.Register(ctx, RegisterRequest{Username: name, Password: "secret1"})
	require.NoError(t, err)

	// Without a tag the name alone identifies the only holder.
	user, err := svc.Authenticate(ctx, name, "", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// With the exact tag.
	user, err = svc.Authenticate(ctx, name, registered.Tag, "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// Wrong password and wrong tag both come back as the same auth failure.
	_, err = svc.Authenticate(ctx, name, "", "wrong")
	require.Error(t, err)
	assert.True(t, apperror.IsAuthError(err))

	wrongTag := "0000"
	if registered.Tag == wrongTag {
		wrongTag = "0001"
	}
	_, err = svc.Authenticate(ctx, name, wrongTag, "secret1")
	require.Error(t, err)
	assert.True(t, apperror.IsAuthError(err))

	_, err = svc.Authenticate(ctx, uniqueName("ghost"), "", "secret1")
	require.Error(t, err)
	assert.True(t, apperror.IsAuthError(err))
}

func TestAuthenticateSameNameDifferentPasswords(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	name := uniqueName("ann")

	first, err := svc.Register(ctx, RegisterRequest{Username: name, Password: "password-one"})
	require.NoError(t, err)
	second, err := svc.Register(ctx, RegisterRequest{Username: name, Password: "password-two"})
	require.NoError(t, err)

	// Tagless login disambiguates by password.
	user, err := svc.Authenticate(ctx, name, "", "password-two")
	require.NoError(t, err)
	assert.Equal(t, second.ID, user.ID)

	user, err = svc.Authenticate(ctx, name, "", "password-one")
	require.NoError(t, err)
	assert.Equal(t, first.ID, user.ID)
}

func TestLoginAndRefresh(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	name := uniqueName("ann")

	registered, err := svc.Register(ctx, RegisterRequest{Username: name, Password: "secret1"})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, LoginRequest{Username: name, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, tokens.UserID)
	assert.Equal(t, registered.Handle(), tokens.Handle)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, refreshed.UserID)
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token is not accepted where a refresh token is required.
	_, err = svc.RefreshToken(ctx, tokens.AccessToken)
	require.Error(t, err)
	assert.True(t, apperror.IsAuthError(err))
}
