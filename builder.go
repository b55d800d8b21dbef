package blogauth

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/blogauth/internal/limiters"
	"github.com/MrEthical07/blogauth/internal/rate"
	"github.com/MrEthical07/blogauth/password"
	"github.com/MrEthical07/blogauth/records"
	"github.com/MrEthical07/blogauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config  Config
	redis   redis.UniversalClient
	records records.Store

	logger    *slog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the session store backend. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRecordStore sets the account and section store. Required.
func (b *Builder) WithRecordStore(store records.Store) *Builder {
	b.records = store
	return b
}

// WithLogger sets the structured logger for non-fatal warnings. The default
// discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink. It takes effect only when Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the clock stamped into sessions and audit events.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.records == nil {
		return nil, errors.New("record store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// -------- PASSWORD ENCODER --------
	encoder, err := password.NewEncoder(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		sessions:  session.NewStore(b.redis, cfg.Session.RedisPrefix, session.WithClock(now)),
		records:   b.records,
		passwords: encoder,
		logger:    logger,
		now:       now,
	}

	// -------- THROTTLES --------
	engine.rateLimiter = rate.New(b.redis, rate.Config{
		Enabled:               cfg.Security.EnableLoginThrottle,
		EnableIPThrottle:      cfg.Security.EnableIPThrottle,
		MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
	})
	if cfg.Registration.EnableAccountThrottle || cfg.Registration.EnableIPThrottle {
		engine.registrationLimiter = limiters.NewRegistrationLimiter(b.redis, limiters.RegistrationConfig{
			EnableAccountThrottle: cfg.Registration.EnableAccountThrottle,
			EnableIPThrottle:      cfg.Registration.EnableIPThrottle,
			MaxAttempts:           cfg.Registration.MaxAttempts,
			Cooldown:              cfg.Registration.Cooldown,
		})
	}

	// -------- OBSERVABILITY --------
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
