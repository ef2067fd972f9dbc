package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	testingpkg "github.com/2beens/garminstats/pkg/testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_Valid(t *testing.T) {
	now := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)

	var nilToken *Token
	assert.False(t, nilToken.Valid(now))
	assert.False(t, (&Token{ExpiresAt: now.Add(time.Hour)}).Valid(now))
	assert.True(t, (&Token{AccessToken: "a", ExpiresAt: now.Add(time.Hour)}).Valid(now))
	// about to expire
	assert.False(t, (&Token{AccessToken: "a", ExpiresAt: now.Add(30 * time.Second)}).Valid(now))
	assert.False(t, (&Token{AccessToken: "a", ExpiresAt: now.Add(-time.Hour)}).Valid(now))
}

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryTokenStore()
	store.now = func() time.Time { return now }

	token, err := store.Get(ctx, "runner@example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.Nil(t, token)

	stored := Token{
		AccessToken: "access",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		ExpiresAt:   now.Add(time.Hour).UTC(),
	}
	require.NoError(t, store.Set(ctx, "runner@example.com", stored))

	token, err = store.Get(ctx, "runner@example.com")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, stored.AccessToken, token.AccessToken)
	assert.True(t, stored.ExpiresAt.Equal(token.ExpiresAt))

	// tokens are kept per email
	_, err = store.Get(ctx, "walker@example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.Delete(ctx, "runner@example.com"))
	_, err = store.Get(ctx, "runner@example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	require.NoError(t, store.Set(ctx, "runner@example.com", stored))

	// expired tokens are not stored at all
	require.NoError(t, store.Set(ctx, "walker@example.com", Token{
		AccessToken: "old",
		ExpiresAt:   now.Add(-time.Second),
	}))
	_, err = store.Get(ctx, "walker@example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRedisTokenStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	ctx := context.Background()
	store := NewRedisTokenStore(db)

	expiresAt := time.Date(2024, 11, 5, 11, 0, 0, 0, time.UTC)
	tokenBytes, err := json.Marshal(Token{AccessToken: "access", ExpiresAt: expiresAt})
	require.NoError(t, err)

	mock.ExpectGet(tokenKeyPrefix + "runner@example.com").SetVal(string(tokenBytes))
	token, err := store.Get(ctx, "runner@example.com")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "access", token.AccessToken)
	assert.True(t, expiresAt.Equal(token.ExpiresAt))

	mock.ExpectGet(tokenKeyPrefix + "walker@example.com").RedisNil()
	token, err = store.Get(ctx, "walker@example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.Nil(t, token)

	mock.ExpectGet(tokenKeyPrefix + "hiker@example.com").SetErr(errors.New("connection refused"))
	token, err = store.Get(ctx, "hiker@example.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
	assert.Nil(t, token)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTokenStore_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	ctx := context.Background()
	now := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	store := NewRedisTokenStore(db)
	store.now = func() time.Time { return now }

	token := Token{
		AccessToken: "access",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		ExpiresAt:   now.Add(time.Hour),
	}
	tokenBytes, err := json.Marshal(token)
	require.NoError(t, err)

	mock.ExpectSet(tokenKeyPrefix+"runner@example.com", tokenBytes, time.Hour).SetVal("OK")
	require.NoError(t, store.Set(ctx, "runner@example.com", token))

	// expired token never reaches redis
	token.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, store.Set(ctx, "runner@example.com", token))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTokenStore_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	ctx := context.Background()
	store := NewRedisTokenStore(db)

	mock.ExpectDel(tokenKeyPrefix + "runner@example.com").SetVal(1)
	require.NoError(t, store.Delete(ctx, "runner@example.com"))

	mock.ExpectDel(tokenKeyPrefix + "walker@example.com").SetErr(errors.New("connection refused"))
	assert.Error(t, store.Delete(ctx, "walker@example.com"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTokenStore_Live(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)
	store := NewRedisTokenStore(rdb)

	email := fmt.Sprintf("live-%d@example.com", time.Now().UnixNano())
	t.Cleanup(func() {
		rdb.Del(context.Background(), tokenKey(email))
	})

	token := Token{
		AccessToken: "live-access",
		TokenType:   "Bearer",
		ExpiresIn:   120,
		ExpiresAt:   time.Now().Add(2 * time.Minute).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Set(ctx, email, token))

	stored, err := store.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, stored.AccessToken)
	assert.True(t, stored.Valid(time.Now()))
}
