package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mnehpets/jsondispatch/dispatch"
	"github.com/mnehpets/jsondispatch/middleware"
	"github.com/mnehpets/jsondispatch/rpchttp"
	"github.com/mnehpets/jsondispatch/rpclog"
)

// An authenticated JSON-RPC endpoint. Two modes, picked from the
// environment:
//
//   - OIDC_ISSUER + OIDC_CLIENT_ID: bearer ID tokens verified against the
//     provider (discovery via go-oidc).
//   - TOKEN_KEY (64 hex chars): sealed opaque tokens issued with
//     middleware.TokenCodec. The example prints a usable token on startup.
func main() {
	_ = godotenv.Load()
	addr := os.Getenv("RPC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	d := dispatch.New(dispatch.WithHooks(rpclog.New(logger)))
	if err := d.RegisterContext("whoami", func(rc *dispatch.Context) map[string]any {
		claims, _ := rc.HostData.(map[string]any)
		return map[string]any{"claims": claims}
	}); err != nil {
		log.Fatal(err)
	}

	h := rpchttp.Handler(d, rpchttp.WithHostData(func(r *http.Request) any {
		claims, _ := middleware.ClaimsFromContext(r.Context())
		return map[string]any(claims)
	}))

	auth, err := buildAuth(logger)
	if err != nil {
		log.Fatal(err)
	}
	http.Handle("/rpc", middleware.RequestLogger(logger)(auth(h)))

	logger.Info().Str("addr", addr).Msg("starting authenticated server")
	log.Fatal(http.ListenAndServe(addr, nil))
}

func buildAuth(logger zerolog.Logger) (middleware.Middleware, error) {
	if issuer := os.Getenv("OIDC_ISSUER"); issuer != "" {
		provider, err := oidc.NewProvider(context.Background(), issuer)
		if err != nil {
			return nil, err
		}
		verifier := provider.Verifier(&oidc.Config{ClientID: os.Getenv("OIDC_CLIENT_ID")})
		logger.Info().Str("issuer", issuer).Msg("using OIDC bearer auth")
		return middleware.OIDCAuth(verifier), nil
	}

	key, err := hex.DecodeString(os.Getenv("TOKEN_KEY"))
	if err != nil {
		return nil, err
	}
	codec, err := middleware.NewTokenCodec("v1", map[string][]byte{"v1": key})
	if err != nil {
		return nil, err
	}

	token, err := codec.Seal(map[string]string{"sub": "example"})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("token", token).Msg("using sealed-token auth; try this bearer token")
	return middleware.TokenAuth(codec), nil
}
