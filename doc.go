// Package blogauth provides session authentication for a blog backend:
// account registration with a default blog section, salted password
// verification, opaque Redis-backed session tokens, and session-bound profile
// and password operations.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// blogauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types ([Account], [Section], [SessionInfo], [MetricsSnapshot]).
// Flow orchestration and throttling live under internal/ and are never
// exported. Persistence is split between two collaborators supplied by the
// caller:
//
//   - a Redis client holding sessions and throttle counters;
//   - a [records.Store] holding accounts and sections.
//
// # What this package must NOT do
//
//   - Return password hashes, salts, or raw passwords in any result, error,
//     log line, or audit event.
//   - Frame HTTP or RPC requests. Carrying the token (for example in a cookie)
//     belongs to the routing layer; see examples/http-minimal.
//   - Sign a caller in as a side effect of [Engine.Register].
//
// # Errors
//
// Every public failure matches one of the sentinel errors in errors.go with
// [errors.Is]. Store transport failures match [ErrStoreUnavailable] and
// deadlines match [ErrTimeout]; the underlying store error stays matchable
// alongside.
package blogauth
