package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRegistrationRateLimited      = errors.New("registration rate limited")
	ErrRegistrationRedisUnavailable = errors.New("registration redis unavailable")
)

type RegistrationConfig struct {
	EnableAccountThrottle bool
	EnableIPThrottle      bool
	MaxAttempts           int
	Cooldown              time.Duration
}

// RegistrationLimiter counts sign-up attempts per requested account name and
// per client IP in fixed windows.
type RegistrationLimiter struct {
	redis  redis.UniversalClient
	config RegistrationConfig
}

func NewRegistrationLimiter(redisClient redis.UniversalClient, cfg RegistrationConfig) *RegistrationLimiter {
	return &RegistrationLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *RegistrationLimiter) Enforce(ctx context.Context, account, ip string) error {
	if l == nil {
		return nil
	}

	if l.config.EnableAccountThrottle {
		if err := l.enforceKey(ctx, registrationAccountKey(account)); err != nil {
			return err
		}
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceKey(ctx, registrationIPKey(ip)); err != nil {
			return err
		}
	}

	return nil
}

func (l *RegistrationLimiter) enforceKey(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRegistrationRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return ErrRegistrationRateLimited
	}

	return nil
}

func registrationAccountKey(account string) string {
	return "br:" + account
}

func registrationIPKey(ip string) string {
	return "bri:" + ip
}
