package dispatch

// Hooks receives instrumentation callbacks from the dispatcher. Hosts use
// it for logging and metrics; the dispatcher itself never logs.
//
// Protocol:
//   - OnRequest fires once per request object, before parsing. For an
//     invalid batch as a whole (an empty batch, or malformed top-level
//     text) it fires once for the whole input.
//   - OnMethod fires immediately before handler invocation, only when the
//     method was found.
//   - OnRequestProcessed fires exactly once per request object after
//     processing completes or fails, carrying the method name (empty if it
//     never became known) and the numeric outcome: 0 for success, the
//     protocol error code otherwise.
//
// hostData is the opaque value the host passed to the process call.
// Implementations must not retain it past the callback.
type Hooks interface {
	OnRequest(hostData any)
	OnMethod(method string, hostData any)
	OnRequestProcessed(method string, code int, hostData any)
}

// NopHooks is the default Hooks implementation. It does nothing.
type NopHooks struct{}

func (NopHooks) OnRequest(any)                       {}
func (NopHooks) OnMethod(string, any)                {}
func (NopHooks) OnRequestProcessed(string, int, any) {}
