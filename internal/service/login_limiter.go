package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTooManyLoginAttempts signals a throttled identifier.
var ErrTooManyLoginAttempts = errors.New("too many login attempts")

// LoginLimiter throttles failed logins per identifier using a redis counter
// with a cooldown window.
type LoginLimiter struct {
	redis    *redis.Client
	max      int64
	cooldown time.Duration
}

// NewLoginLimiter builds a limiter. maxAttempts <= 0 disables throttling.
func NewLoginLimiter(client *redis.Client, maxAttempts int, cooldown time.Duration) *LoginLimiter {
	if client == nil || maxAttempts <= 0 {
		return nil
	}
	return &LoginLimiter{redis: client, max: int64(maxAttempts), cooldown: cooldown}
}

func (l *LoginLimiter) key(identifier string) string {
	return "login:att:" + identifier
}

// Check returns ErrTooManyLoginAttempts when the identifier is in cooldown.
func (l *LoginLimiter) Check(ctx context.Context, identifier string) error {
	count, err := l.redis.Get(ctx, l.key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	if count >= l.max {
		return ErrTooManyLoginAttempts
	}
	return nil
}

// RecordFailure bumps the failure counter, arming the cooldown on the first one.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identifier string) error {
	count, err := l.redis.Incr(ctx, l.key(identifier)).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(identifier), l.cooldown).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	return l.redis.Del(ctx, l.key(identifier)).Err()
}
