// Package dispatch is a JSON-RPC 2.0 request-dispatch engine.
//
// A Dispatcher maps method names to handlers and processes decoded request
// values (single requests, notifications, and batches) into spec-compliant
// response values. The host supplies transport and
// serialization; the rpchttp and codec packages provide ready-made ones.
//
// # Basic usage
//
//	d := dispatch.New()
//	d.Register("subtract", func(minuend, subtrahend int) int {
//		return minuend - subtrahend
//	})
//
//	out := d.ProcessText(ctx, `{"jsonrpc":"2.0","method":"subtract","params":[42,23],"id":1}`, nil)
//	// out == `{"id":1,"jsonrpc":"2.0","result":19}`
//
// # Handler signatures
//
// Handlers are plain functions. The binder fixes a strategy at registration
// time from the declared signature:
//
//	func(a, b int) int                          // positional params
//	func(ctx context.Context, name string) (string, error)
//	func(params []any) int                      // free-form: whole params array
//	func(p SubtractParams) int                  // object params via struct tags
//	func()                                      // no params, no result
//
// Positional arguments are bound element-by-element from the params array;
// the arity must match exactly. Object params arrive as a single-element
// array, so a one-struct-parameter handler receives named parameters
// decoded through the usual json struct tags. A handler whose only
// parameter is []any bypasses arity checking and receives the array as-is.
//
// RegisterContext additionally passes request-scoped data (the host data
// given to the process call and the request's extra fields):
//
//	d.RegisterContext("whoami", func(rc *dispatch.Context) map[string]any {
//		return map[string]any{"host": rc.HostData, "extra": rc.Extra}
//	})
//
// # Notifications and batches
//
// A request without an id is a notification: it is executed but never
// answered, even on failure. A batch is processed element by element,
// preserving order, and collapses to no output when every element is a
// notification. Batching is exactly one level deep; a nested array is
// rejected as an invalid request.
//
// # Instrumentation
//
// Hooks (see WithHooks) observe every request object: once before parsing,
// once before invocation, and exactly once after processing with the
// numeric outcome. rpclog provides a zerolog-backed implementation.
package dispatch
