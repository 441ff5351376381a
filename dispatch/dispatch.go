package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/mnehpets/jsondispatch/codec"
	"github.com/mnehpets/jsondispatch/jsonrpc"
)

// Dispatcher routes JSON-RPC 2.0 requests to registered handlers.
//
// Registration is expected to happen during setup, but the registry is
// guarded by a read-write lock so late registration is safe: a lookup never
// observes a partially inserted handler. Processing itself is a pure
// function of the registry snapshot, the input, and the host data; the
// dispatcher keeps no per-request state and ProcessValue is reentrant.
type Dispatcher struct {
	mu      sync.RWMutex
	methods map[string]Handler
	hooks   Hooks
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHooks installs instrumentation hooks. The default is NopHooks.
func WithHooks(h Hooks) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.hooks = h
		}
	}
}

// New creates an empty dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		methods: make(map[string]Handler),
		hooks:   NopHooks{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds a plain function as the handler for method.
//
// fn may declare an optional leading context.Context, zero or more
// positional parameters, and return nothing, a result, an error, or a
// result and an error. A function whose only parameter is []any receives
// the whole normalized params array regardless of its length.
//
// The first registration for a name wins; registering the same name again
// is a silent no-op. Register returns an error only when fn is not a usable
// handler function.
func (d *Dispatcher) Register(method string, fn any) error {
	h, err := newFuncHandler(fn, false)
	if err != nil {
		return err
	}
	d.RegisterHandler(method, h)
	return nil
}

// RegisterContext is Register for functions that declare a request-context
// parameter after the optional context.Context: a *Context, a
// map[string]any (host data merged with {"extra": extraFields}), or a user
// type bound from the host data or the request's extra fields.
func (d *Dispatcher) RegisterContext(method string, fn any) error {
	h, err := newFuncHandler(fn, true)
	if err != nil {
		return err
	}
	d.RegisterHandler(method, h)
	return nil
}

// RegisterHandler binds a Handler directly. First registration wins.
func (d *Dispatcher) RegisterHandler(method string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.methods[method]; exists {
		return
	}
	d.methods[method] = h
}

func (d *Dispatcher) lookup(method string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.methods[method]
	return h, ok
}

// ProcessValue dispatches a decoded request value, either a single request
// object or a batch array, and returns the response value: a response
// object, an array of response objects, or jsonrpc.Discarded when nothing
// should be emitted (notifications).
//
// hostData is opaque to the dispatcher; it is handed to the instrumentation
// hooks and to handlers that declare a request-context parameter.
func (d *Dispatcher) ProcessValue(ctx context.Context, input any, hostData any) any {
	if ctx == nil {
		ctx = context.Background()
	}
	if batch, ok := input.([]any); ok {
		return d.processBatch(ctx, batch, hostData)
	}
	return d.processSingle(ctx, input, hostData)
}

// ProcessText dispatches a JSON text payload. Malformed JSON yields a
// parse-error response keyed to id null, with the request hooks still fired
// once. A discarded result serializes to the empty string.
func (d *Dispatcher) ProcessText(ctx context.Context, input string, hostData any) string {
	return string(d.ProcessBytes(ctx, codec.JSON, []byte(input), hostData))
}

// ProcessBytes is ProcessText generalized over a framing codec. It returns
// nil when the request produced no output.
func (d *Dispatcher) ProcessBytes(ctx context.Context, c codec.Codec, data []byte, hostData any) []byte {
	value, err := c.Decode(data)
	if err != nil {
		d.hooks.OnRequest(hostData)
		d.hooks.OnRequestProcessed("", jsonrpc.CodeParseError, hostData)
		return encodeResponse(c, jsonrpc.ErrorResponse(jsonrpc.NewError(jsonrpc.CodeParseError, err.Error()), nil))
	}

	res := d.ProcessValue(ctx, value, hostData)
	if jsonrpc.IsDiscarded(res) {
		return nil
	}
	return encodeResponse(c, res)
}

// encodeResponse serializes a response value; when the handler produced an
// unserializable result, the failure degrades to an internal-error response
// keyed to the id of the response that could not be encoded (null for a
// batch, where no single id applies).
func encodeResponse(c codec.Codec, res any) []byte {
	out, err := c.Encode(res)
	if err == nil {
		return out
	}
	fallback := jsonrpc.ErrorResponse(jsonrpc.NewError(jsonrpc.CodeInternalError, err.Error()), jsonrpc.RequestID(res))
	out, err = c.Encode(fallback)
	if err != nil {
		return nil
	}
	return out
}

// processBatch runs the single-request path over every batch element,
// preserving order. Batching is exactly one level deep: an element that is
// itself an array lands in processSingle and is rejected there as "not an
// object".
func (d *Dispatcher) processBatch(ctx context.Context, batch []any, hostData any) any {
	if len(batch) == 0 {
		d.hooks.OnRequest(hostData)
		d.hooks.OnRequestProcessed("", jsonrpc.CodeInvalidRequest, hostData)
		return jsonrpc.ErrorResponse(jsonrpc.NewError(jsonrpc.CodeInvalidRequest, jsonrpc.MessageEmptyBatch), nil)
	}

	responses := make([]any, 0, len(batch))
	for _, el := range batch {
		if res := d.processSingle(ctx, el, hostData); !jsonrpc.IsDiscarded(res) {
			responses = append(responses, res)
		}
	}
	if len(responses) == 0 {
		// All elements were notifications.
		return jsonrpc.Discarded
	}
	return responses
}

// processSingle drives one request object through parse, validate, lookup,
// bind, and invoke, converting any failure into an error response at this
// boundary. Errors are keyed to the best-known id: the raw id before
// parsing succeeds, the parsed id afterwards. Once the request is known to
// be a notification, failures are suppressed along with successes.
func (d *Dispatcher) processSingle(ctx context.Context, input any, hostData any) any {
	d.hooks.OnRequest(hostData)

	obj, ok := input.(map[string]any)
	if !ok {
		d.hooks.OnRequestProcessed("", jsonrpc.CodeInvalidRequest, hostData)
		return jsonrpc.ErrorResponse(jsonrpc.NewError(jsonrpc.CodeInvalidRequest, jsonrpc.MessageNotJSONRPC2Request), nil)
	}

	req, perr := jsonrpc.ParseRequest(obj)
	if perr != nil {
		d.hooks.OnRequestProcessed("", perr.Code, hostData)
		return jsonrpc.ErrorResponse(perr, jsonrpc.RequestID(obj))
	}

	if verr := req.Validate(); verr != nil {
		d.hooks.OnRequestProcessed(req.Method, verr.Code, hostData)
		// An id of an invalid shape cannot key a response; degrade to null.
		id := req.ID
		if !jsonrpc.ValidID(id) {
			id = nil
		}
		return d.errorOrDiscard(verr, id)
	}

	h, found := d.lookup(req.Method)
	if !found {
		d.hooks.OnRequestProcessed(req.Method, jsonrpc.CodeMethodNotFound, hostData)
		return d.errorOrDiscard(jsonrpc.NewError(jsonrpc.CodeMethodNotFound, jsonrpc.MessageMethodNotFound), req.ID)
	}

	d.hooks.OnMethod(req.Method, hostData)
	rc := &Context{HostData: hostData, Extra: req.Extra}
	result, err := safeInvoke(ctx, h, rc, req.Params)
	if err != nil {
		e := jsonrpc.Wrap(err)
		d.hooks.OnRequestProcessed(req.Method, e.Code, hostData)
		return d.errorOrDiscard(e, req.ID)
	}

	d.hooks.OnRequestProcessed(req.Method, 0, hostData)
	if req.Notification() {
		return jsonrpc.Discarded
	}
	return jsonrpc.SuccessResponse(result, req.ID)
}

// safeInvoke calls the handler and converts a panic into an internal error.
// The recover sits at the per-request boundary, so any Handler
// implementation is covered and a panicking batch element cannot abort its
// siblings.
func safeInvoke(ctx context.Context, h Handler, rc *Context, params []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = jsonrpc.NewError(jsonrpc.CodeInternalError, fmt.Sprint(r))
		}
	}()
	return h.Invoke(ctx, rc, params)
}

// errorOrDiscard suppresses the error response when the request was a
// notification: a failing notification still emits nothing.
func (d *Dispatcher) errorOrDiscard(e *jsonrpc.Error, id any) any {
	if jsonrpc.IsDiscarded(id) {
		return jsonrpc.Discarded
	}
	return jsonrpc.ErrorResponse(e, id)
}
