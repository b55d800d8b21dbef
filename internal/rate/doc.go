// Package rate provides the Redis-backed sign-in throttle used by blogauth.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - bl:  login per-account
//   - bli: login per-IP
//
// A disabled or nil [Limiter] admits every attempt.
//
// # What this package must NOT do
//
//   - Implement registration policy (that lives in internal/limiters).
//   - Be imported outside the blogauth module.
package rate
