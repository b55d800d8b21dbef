// Package session provides the Redis-backed session store and the opaque
// token utilities used to mint session identifiers.
//
// # Storage layout
//
// Each session is one Redis hash stored under "<prefix>:<token>" with the
// fields "login_time" (unix seconds) and "account". Expiry is delegated to
// Redis: the key carries a native TTL set at creation, so an expired session
// simply stops resolving.
//
// # Tokens
//
// A token is the hex SHA3-256 digest of a random alphanumeric string drawn
// from crypto/rand. Tokens are unguessable and collide with negligible
// probability; a colliding key is overwritten on creation.
//
// # What this package must NOT do
//
//   - Import blogauth or the records package (no upward imports).
//   - Look up accounts or make authorization decisions.
//   - Store anything but the account name and login time under a token.
package session
