// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRegister, RunVerifyLogin, RunChangePassword, etc.)
// accepts a typed dependency struct and returns results without side-effects
// beyond those dependencies. The Engine builds the dependency structs and
// stays thin.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store, the record store,
// the password encoder, rate limiters, audit, and metrics. They do NOT own
// any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import blogauth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency funcs.
package flows
