package blogauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionExpiresAfterTTL(t *testing.T) {
	cfg := testConfig()
	cfg.Session.TTL = time.Hour
	te := newTestEngine(t, cfg)
	ctx := context.Background()

	mustRegister(t, te.Engine, "alice", "pw123", "Alice")
	token, err := te.VerifyLogin(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("VerifyLogin failed: %v", err)
	}

	te.mr.FastForward(59 * time.Minute)
	if _, err := te.ResolveSession(ctx, token); err != nil {
		t.Fatalf("expected live session before TTL, got %v", err)
	}

	te.mr.FastForward(2 * time.Minute)
	if _, err := te.ResolveSession(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after TTL, got %v", err)
	}
}

func TestDefaultSessionTTL(t *testing.T) {
	te := newTestEngine(t, testConfig())
	ctx := context.Background()

	mustRegister(t, te.Engine, "alice", "pw123", "Alice")
	token, err := te.VerifyLogin(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("VerifyLogin failed: %v", err)
	}

	info, err := te.GetSessionInfo(ctx, token)
	if err != nil {
		t.Fatalf("GetSessionInfo failed: %v", err)
	}
	if info.ExpiresIn <= DefaultSessionTTL-time.Minute || info.ExpiresIn > DefaultSessionTTL {
		t.Fatalf("expected ~%s remaining, got %s", DefaultSessionTTL, info.ExpiresIn)
	}
}

func TestGetSessionInfo(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	te := newTestEngine(t, testConfig(), func(b *Builder) {
		b.WithClock(func() time.Time { return now })
	})
	ctx := context.Background()

	mustRegister(t, te.Engine, "alice", "pw123", "Alice")
	token, err := te.VerifyLogin(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("VerifyLogin failed: %v", err)
	}

	info, err := te.GetSessionInfo(ctx, token)
	if err != nil {
		t.Fatalf("GetSessionInfo failed: %v", err)
	}
	if info.Account != "alice" {
		t.Fatalf("expected alice, got %q", info.Account)
	}
	if !info.LoginTime.Equal(now) {
		t.Fatalf("expected login time %s, got %s", now, info.LoginTime)
	}

	if _, err := te.GetSessionInfo(ctx, "unknown"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestResolveSessionUnknownAndEmpty(t *testing.T) {
	te := newTestEngine(t, testConfig())

	for _, token := range []string{"", "deadbeef"} {
		if _, err := te.ResolveSession(context.Background(), token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("token %q: expected ErrSessionNotFound, got %v", token, err)
		}
	}
}

func TestSignOutIdempotent(t *testing.T) {
	te := newTestEngine(t, testConfig(), func(b *Builder) { b.WithMetricsEnabled(true) })
	ctx := context.Background()

	mustRegister(t, te.Engine, "alice", "pw123", "Alice")
	token, err := te.VerifyLogin(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("VerifyLogin failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := te.SignOut(ctx, token); err != nil {
			t.Fatalf("SignOut #%d failed: %v", i+1, err)
		}
	}
	if err := te.SignOut(ctx, ""); err != nil {
		t.Fatalf("SignOut of empty token failed: %v", err)
	}
	if got := te.MetricsSnapshot().Counters[MetricLogout]; got != 3 {
		t.Fatalf("expected 3 logouts, got %d", got)
	}
}

func TestSignOutLeavesOtherSessions(t *testing.T) {
	te := newTestEngine(t, testConfig())
	ctx := context.Background()

	mustRegister(t, te.Engine, "alice", "pw123", "Alice")
	phone, err := te.VerifyLogin(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("VerifyLogin failed: %v", err)
	}
	laptop, err := te.VerifyLogin(ctx, "alice", "pw123")
	if err != nil {
		t.Fatalf("VerifyLogin failed: %v", err)
	}

	if err := te.SignOut(ctx, phone); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if _, err := te.ResolveSession(ctx, laptop); err != nil {
		t.Fatalf("expected other session to survive, got %v", err)
	}
}
