package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mnehpets/jsondispatch/dispatch"
	"github.com/mnehpets/jsondispatch/jsonrpc"
	"github.com/mnehpets/jsondispatch/middleware"
	"github.com/mnehpets/jsondispatch/rpchttp"
	"github.com/mnehpets/jsondispatch/rpclog"
)

// SubtractParams demonstrates named parameters: a request carrying
// {"params": {"minuend": 42, "subtrahend": 23}} binds here.
type SubtractParams struct {
	Minuend    int `json:"minuend"`
	Subtrahend int `json:"subtrahend"`
}

func main() {
	_ = godotenv.Load()
	addr := os.Getenv("RPC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	d := dispatch.New(dispatch.WithHooks(rpclog.New(logger)))

	if err := d.Register("subtract", func(minuend, subtrahend int) int {
		return minuend - subtrahend
	}); err != nil {
		log.Fatal(err)
	}
	if err := d.Register("subtract_named", func(p SubtractParams) int {
		return p.Minuend - p.Subtrahend
	}); err != nil {
		log.Fatal(err)
	}
	if err := d.Register("sum", func(values []any) (float64, error) {
		total := 0.0
		for _, v := range values {
			n, ok := v.(json.Number)
			if !ok {
				return 0, jsonrpc.NewError(jsonrpc.CodeInvalidParams, jsonrpc.MessageInvalidParams)
			}
			f, err := n.Float64()
			if err != nil {
				return 0, err
			}
			total += f
		}
		return total, nil
	}); err != nil {
		log.Fatal(err)
	}
	if err := d.RegisterContext("whoami", func(rc *dispatch.Context) map[string]any {
		return map[string]any{
			"host":  rc.HostData,
			"extra": rc.Extra,
		}
	}); err != nil {
		log.Fatal(err)
	}

	h := rpchttp.Handler(d, rpchttp.WithHostData(func(r *http.Request) any {
		return map[string]any{"remote": r.RemoteAddr}
	}))
	http.Handle("/rpc", middleware.RequestLogger(logger)(h))

	logger.Info().Str("addr", addr).Msg("starting calculator server")
	log.Fatal(http.ListenAndServe(addr, nil))
}
