package blogauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/blogauth/internal/limiters"
	"github.com/MrEthical07/blogauth/internal/rate"
	"github.com/MrEthical07/blogauth/password"
	"github.com/MrEthical07/blogauth/records"
	"github.com/MrEthical07/blogauth/session"
)

// Engine is the session-authentication engine. Build one with [New].
//
// Engine is safe for concurrent use. It holds no per-request state; all
// durable state lives in the session store and the record store.
type Engine struct {
	config              Config
	sessions            *session.Store
	records             records.Store
	passwords           *password.Encoder
	rateLimiter         *rate.Limiter
	registrationLimiter *limiters.RegistrationLimiter
	audit               *auditDispatcher
	metrics             *Metrics
	logger              *slog.Logger
	now                 func() time.Time
}

// Close flushes and stops the audit dispatcher. The Redis client and the
// record store are owned by the caller and stay open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return e.config
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricIncInt(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) warn(msg string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warn(msg, args...)
}

func (e *Engine) ready() bool {
	return e != nil && e.sessions != nil && e.records != nil && e.passwords != nil
}

// storeContext bounds a single store call by Store.OperationTimeout, or by
// DefaultStoreTimeout when none is set.
func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := e.config.Store.OperationTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// withStore runs fn under the store deadline and tags deadline failures
// with ErrTimeout.
func withStore[T any](e *Engine, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	v, err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return v, errors.Join(ErrTimeout, err)
	}
	return v, err
}

func withStoreErr(e *Engine, ctx context.Context, fn func(context.Context) error) error {
	_, err := withStore(e, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// transportError maps store transport failures and deadlines to ErrTimeout
// or ErrStoreUnavailable joined with the cause. Caller cancellation is
// returned unchanged. It returns nil for every other error.
func transportError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, session.ErrRedisUnavailable),
		errors.Is(err, records.ErrUnavailable),
		errors.Is(err, rate.ErrRedisUnavailable),
		errors.Is(err, limiters.ErrRegistrationRedisUnavailable):
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func isPasswordPolicyErr(err error) bool {
	return errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong)
}
