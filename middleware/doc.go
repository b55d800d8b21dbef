// Package middleware carries blogauth session tokens over HTTP cookies.
//
// [Guard] reads the session cookie, resolves it with
// [blogauth.Engine.ResolveCurrentAccount], and injects the account into the
// request context. [SetSessionCookie] and [ClearSessionCookie] are the carrier
// helpers for sign-in and sign-out handlers.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every
// authentication decision is delegated to the Engine.
//
// # What this package must NOT do
//
//   - Access Redis or the record store directly.
//   - Read or write password material.
package middleware
