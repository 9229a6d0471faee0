package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "room:code:"

// CodeRegistry reserves room codes so that two createRoom requests never
// receive the same live code.
type CodeRegistry interface {
	// Reserve takes the code for the registry's reservation TTL and reports
	// false when it is already taken.
	Reserve(ctx context.Context, code string) (bool, error)
	// Claim pins the code for as long as its room lives.
	Claim(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

type memoryCodes struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	reserved map[string]time.Time // zero time: claimed, no expiry
}

func NewMemoryCodeRegistry(ttl time.Duration) CodeRegistry {
	return &memoryCodes{
		ttl:      ttl,
		now:      time.Now,
		reserved: make(map[string]time.Time),
	}
}

func (that *memoryCodes) Reserve(_ context.Context, code string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()
	if expiresAt, ok := that.reserved[code]; ok && (expiresAt.IsZero() || now.Before(expiresAt)) {
		return false, nil
	}

	that.reserved[code] = now.Add(that.ttl)

	return true, nil
}

func (that *memoryCodes) Claim(_ context.Context, code string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.reserved[code] = time.Time{}

	return nil
}

func (that *memoryCodes) Release(_ context.Context, code string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.reserved, code)

	return nil
}

type redisCodes struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCodeRegistry shares reservations between relay instances.
func NewRedisCodeRegistry(client *redis.Client, ttl time.Duration) CodeRegistry {
	return &redisCodes{
		client: client,
		ttl:    ttl,
	}
}

func (that *redisCodes) Reserve(ctx context.Context, code string) (bool, error) {
	ok, err := that.client.SetNX(ctx, codeKeyPrefix+code, 1, that.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve room code: %w", err)
	}

	return ok, nil
}

func (that *redisCodes) Claim(ctx context.Context, code string) error {
	if err := that.client.Set(ctx, codeKeyPrefix+code, 1, 0).Err(); err != nil {
		return fmt.Errorf("failed to claim room code: %w", err)
	}

	return nil
}

func (that *redisCodes) Release(ctx context.Context, code string) error {
	err := that.client.Del(ctx, codeKeyPrefix+code).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release room code: %w", err)
	}

	return nil
}
