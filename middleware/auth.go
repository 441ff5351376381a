package middleware

import (
	"net/http"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// BearerAuth verifies a signed JWT presented as a bearer token.
//
// key is the verification key (a shared secret for HMAC algorithms, or a
// public key for asymmetric ones), algs is the list of acceptable signature
// algorithms, and expected carries the issuer/audience constraints; the
// current time is added automatically when validating.
//
// On success the token's private claims are stored in the request context
// (see ClaimsFromContext). On any failure the request is rejected with 401
// before it reaches the RPC endpoint.
func BearerAuth(key any, algs []jose.SignatureAlgorithm, expected jwt.Expected) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			tok, err := jwt.ParseSigned(raw, algs)
			if err != nil {
				unauthorized(w)
				return
			}

			var claims jwt.Claims
			private := make(map[string]any)
			if err := tok.Claims(key, &claims, &private); err != nil {
				unauthorized(w)
				return
			}
			if err := claims.Validate(expected.WithTime(time.Now())); err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, withClaims(r, private))
		})
	}
}
