// Package rpchttp serves a dispatch.Dispatcher over HTTP.
//
// The handler implements JSON-RPC over HTTP
// (https://www.simple-is-better.org/json-rpc/transport_http.html): POST
// only, Content-Type negotiation, 200 for answered requests and 204 for
// notifications. Requests framed as application/cbor are answered in CBOR.
package rpchttp

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mnehpets/jsondispatch/codec"
	"github.com/mnehpets/jsondispatch/dispatch"
)

// DefaultMaxBodyBytes bounds the request body the handler will read.
const DefaultMaxBodyBytes = 1 << 20

// Option configures the handler.
type Option func(*handler)

// WithHostData supplies a function deriving the opaque host data passed to
// the dispatcher from the incoming request (e.g. the remote address or
// authenticated principal). The default passes nil.
func WithHostData(fn func(*http.Request) any) Option {
	return func(h *handler) {
		h.hostData = fn
	}
}

// WithMaxBodyBytes overrides the request body size limit.
func WithMaxBodyBytes(n int64) Option {
	return func(h *handler) {
		h.maxBody = n
	}
}

// Handler wraps a dispatcher as an http.Handler.
func Handler(d *dispatch.Dispatcher, opts ...Option) http.Handler {
	h := &handler{d: d, maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type handler struct {
	d        *dispatch.Dispatcher
	hostData func(*http.Request) any
	maxBody  int64
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "JSON-RPC requires POST method", http.StatusMethodNotAllowed)
		return
	}

	c, ok := codecFor(r.Header.Get("Content-Type"))
	if !ok {
		http.Error(w, "Content-Type must be application/json or application/cbor", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "error reading request body", http.StatusBadRequest)
		return
	}

	var hostData any
	if h.hostData != nil {
		hostData = h.hostData(r)
	}

	out := h.d.ProcessBytes(r.Context(), c, body, hostData)
	if len(out) == 0 {
		// Pure notification: nothing to emit.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// codecFor selects the framing from the request Content-Type. An absent
// Content-Type defaults to JSON.
func codecFor(contentType string) (codec.Codec, bool) {
	switch {
	case contentType == "" || strings.HasPrefix(contentType, "application/json"):
		return codec.JSON, true
	case strings.HasPrefix(contentType, "application/cbor"):
		return codec.CBOR, true
	}
	return nil, false
}
