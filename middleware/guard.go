package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/MrEthical07/blogauth"
)

type accountContextKey struct{}
type tokenContextKey struct{}

// AccountFromContext returns the account attached by [Guard].
func AccountFromContext(ctx context.Context) (blogauth.Account, bool) {
	acc, ok := ctx.Value(accountContextKey{}).(blogauth.Account)
	return acc, ok
}

// TokenFromContext returns the session token attached by [Guard].
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	return token, ok
}

// Guard resolves the session cookie to the current account and rejects the
// request with 401 when it cannot. Store failures answer 503.
func Guard(engine *blogauth.Engine, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := SessionToken(r, cookieName)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithRequestContext(r)
			acc, err := engine.ResolveCurrentAccount(ctx, token)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, blogauth.ErrStoreUnavailable) || errors.Is(err, blogauth.ErrTimeout) {
					status = http.StatusServiceUnavailable
				}
				http.Error(w, http.StatusText(status), status)
				return
			}

			ctx = context.WithValue(ctx, accountContextKey{}, acc)
			ctx = context.WithValue(ctx, tokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithRequestContext returns the request context with the remote IP attached
// for engine throttling and audit.
func WithRequestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return blogauth.WithClientIP(r.Context(), host)
}
