package middleware

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCAuth verifies a bearer OIDC ID token against the given verifier
// (obtained from provider discovery, see oidc.NewProvider).
//
// On success the token claims are stored in the request context (see
// ClaimsFromContext); on any failure the request is rejected with 401.
func OIDCAuth(verifier *oidc.IDTokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			idToken, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				unauthorized(w)
				return
			}

			claims := make(map[string]any)
			if err := idToken.Claims(&claims); err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}
