// Package middleware provides HTTP middleware for a JSON-RPC endpoint:
// bearer-token authentication (signed JWTs, OIDC ID tokens, or sealed
// opaque tokens) and request logging.
//
// Each middleware is a func(http.Handler) http.Handler and composes with
// the standard library:
//
//	h := rpchttp.Handler(d)
//	h = middleware.BearerAuth(key, algs, expected)(h)
//	h = middleware.RequestLogger(logger)(h)
//	http.Handle("/rpc", h)
//
// Authentication middleware stores the verified claims in the request
// context; retrieve them with ClaimsFromContext. Combined with
// rpchttp.WithHostData, claims can be forwarded into handlers as host data.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

type claimsContextKey struct{}

// ClaimsFromContext returns the token claims stored by an authentication
// middleware, if any.
func ClaimsFromContext(ctx context.Context) (map[string]any, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(map[string]any)
	return claims, ok
}

func withClaims(r *http.Request, claims map[string]any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), claimsContextKey{}, claims))
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
