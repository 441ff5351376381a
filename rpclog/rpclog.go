// Package rpclog provides a zerolog-backed implementation of
// dispatch.Hooks. Successful requests log at debug level, failures at
// error level with the protocol error code.
package rpclog

import (
	"github.com/rs/zerolog"

	"github.com/mnehpets/jsondispatch/dispatch"
)

// Hooks logs dispatcher instrumentation events.
type Hooks struct {
	logger zerolog.Logger
}

var _ dispatch.Hooks = (*Hooks)(nil)

// New creates hooks writing to logger.
func New(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// OnRequest implements dispatch.Hooks.
func (h *Hooks) OnRequest(_ any) {
	h.logger.Debug().Msg("request received")
}

// OnMethod implements dispatch.Hooks.
func (h *Hooks) OnMethod(method string, _ any) {
	h.logger.Debug().Str("method", method).Msg("dispatching")
}

// OnRequestProcessed implements dispatch.Hooks.
func (h *Hooks) OnRequestProcessed(method string, code int, _ any) {
	if code == 0 {
		h.logger.Debug().Str("method", method).Msg("request processed")
		return
	}
	h.logger.Error().Str("method", method).Int("code", code).Msg("request failed")
}
