package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
)

var (
	_ TokenStore = (*MemoryTokenStore)(nil)
	_ TokenStore = (*RedisTokenStore)(nil)
)

// MemoryTokenStore keeps tokens in an in-process freecache.
type MemoryTokenStore struct {
	cache *freecache.Cache
	now   func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	megabyte := 1024 * 1024
	return &MemoryTokenStore{
		cache: freecache.NewCache(megabyte),
		now:   time.Now,
	}
}

func (s *MemoryTokenStore) Get(_ context.Context, email string) (*Token, error) {
	tokenBytes, err := s.cache.Get([]byte(tokenKey(email)))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("get cached token: %w", err)
	}

	token := &Token{}
	if err := json.Unmarshal(tokenBytes, token); err != nil {
		return nil, fmt.Errorf("unmarshal cached token: %w", err)
	}
	return token, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, email string, token Token) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	tokenBytes, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	// freecache expiry is in whole seconds, 0 means no expiry
	expireSeconds := int(ttl.Seconds())
	if expireSeconds < 1 {
		expireSeconds = 1
	}
	return s.cache.Set([]byte(tokenKey(email)), tokenBytes, expireSeconds)
}

func (s *MemoryTokenStore) Delete(_ context.Context, email string) error {
	s.cache.Del([]byte(tokenKey(email)))
	return nil
}

// RedisTokenStore keeps tokens in redis, so separate runs of the tools can reuse them.
type RedisTokenStore struct {
	redisClient *redis.Client
	now         func() time.Time
}

func NewRedisTokenStore(redisClient *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{
		redisClient: redisClient,
		now:         time.Now,
	}
}

func (s *RedisTokenStore) Get(ctx context.Context, email string) (*Token, error) {
	cmd := s.redisClient.Get(ctx, tokenKey(email))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("redis get token: %w", err)
	}

	token := &Token{}
	if err := json.Unmarshal([]byte(cmd.Val()), token); err != nil {
		return nil, fmt.Errorf("unmarshal redis token: %w", err)
	}
	return token, nil
}

func (s *RedisTokenStore) Set(ctx context.Context, email string, token Token) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	tokenBytes, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if err := s.redisClient.Set(ctx, tokenKey(email), tokenBytes, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, email string) error {
	if err := s.redisClient.Del(ctx, tokenKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete token: %w", err)
	}
	return nil
}
