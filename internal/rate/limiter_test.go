package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb, cfg), mr
}

func testConfig() Config {
	return Config{
		Enabled:               true,
		EnableIPThrottle:      true,
		MaxLoginAttempts:      3,
		LoginCooldownDuration: time.Minute,
	}
}

func TestLoginBudgetExhaustion(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "alice", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d: unexpected check error: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "alice", "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d: unexpected increment error: %v", i, err)
		}
	}

	if err := l.CheckLogin(ctx, "alice", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after budget, got %v", err)
	}
	if err := l.IncrementLogin(ctx, "alice", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited from increment past budget, got %v", err)
	}

	attempts, err := l.GetLoginAttempts(ctx, "alice")
	if err != nil {
		t.Fatalf("GetLoginAttempts error: %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 recorded attempts, got %d", attempts)
	}
}

func TestLoginWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = l.IncrementLogin(ctx, "bob", "")
	}
	if err := l.CheckLogin(ctx, "bob", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.CheckLogin(ctx, "bob", ""); err != nil {
		t.Fatalf("expected window reset after cooldown, got %v", err)
	}
}

func TestResetLoginClearsCounters(t *testing.T) {
	l, mr := newTestLimiter(t, testConfig())
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "carol", "10.0.0.2")
	if !mr.Exists(loginAccountKey("carol")) || !mr.Exists(loginIPKey("10.0.0.2")) {
		t.Fatal("expected both counters to exist")
	}

	if err := l.ResetLogin(ctx, "carol", "10.0.0.2"); err != nil {
		t.Fatalf("ResetLogin error: %v", err)
	}
	if mr.Exists(loginAccountKey("carol")) || mr.Exists(loginIPKey("10.0.0.2")) {
		t.Fatal("expected counters to be cleared")
	}
}

func TestIPThrottleSharedAcrossAccounts(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig())
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a", "10.0.0.3")
	_ = l.IncrementLogin(ctx, "b", "10.0.0.3")
	_ = l.IncrementLogin(ctx, "c", "10.0.0.3")

	if err := l.CheckLogin(ctx, "d", "10.0.0.3"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected per-IP limit to apply to a fresh account, got %v", err)
	}
}

func TestDisabledLimiterAdmitsEverything(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	l, mr := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := l.IncrementLogin(ctx, "dave", ""); err != nil {
			t.Fatalf("unexpected error from disabled limiter: %v", err)
		}
	}
	if err := l.CheckLogin(ctx, "dave", ""); err != nil {
		t.Fatalf("unexpected error from disabled limiter: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("disabled limiter must not write keys, found %v", mr.Keys())
	}

	var nilLimiter *Limiter
	if err := nilLimiter.CheckLogin(ctx, "dave", ""); err != nil {
		t.Fatalf("nil limiter must admit, got %v", err)
	}
}

func TestRedisDownWrapsUnavailable(t *testing.T) {
	l, mr := newTestLimiter(t, testConfig())
	mr.Close()

	err := l.IncrementLogin(context.Background(), "erin", "")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
