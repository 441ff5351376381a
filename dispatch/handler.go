package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/mnehpets/jsondispatch/jsonrpc"
)

// Context carries the request-scoped data a handler may observe beyond its
// positional parameters: the opaque host data passed to the process call
// and the request's extra fields (members outside the four reserved keys).
// It is owned for the duration of one invocation; handlers must not retain
// it.
type Context struct {
	HostData any
	Extra    map[string]any
}

// Handler is the uniform capability stored in the method registry. Invoke
// receives the normalized params array and returns either a result value or
// an error; a returned *jsonrpc.Error keeps its code, anything else is
// wrapped as an internal error.
type Handler interface {
	Invoke(ctx context.Context, rc *Context, params []any) (any, error)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, rc *Context, params []any) (any, error)

func (f HandlerFunc) Invoke(ctx context.Context, rc *Context, params []any) (any, error) {
	return f(ctx, rc, params)
}

var (
	ctxType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType    = reflect.TypeOf((*error)(nil)).Elem()
	paramsType = reflect.TypeOf([]any(nil))
	rcType     = reflect.TypeOf((*Context)(nil))
	mapType    = reflect.TypeOf(map[string]any(nil))
)

// funcHandler binds a plain Go function as a Handler. The binding strategy
// (arity, params-array passthrough, context slot) is fixed at registration
// time via newFuncHandler.
type funcHandler struct {
	fn       reflect.Value
	wantsCtx bool         // leading context.Context parameter
	rcSlot   reflect.Type // request-context parameter type; nil when absent
	argTypes []reflect.Type
	rawArgs  bool // single []any parameter receives the whole params array
	results  int  // index of the result output, -1 when none
	errs     int  // index of the error output, -1 when none
}

// newFuncHandler inspects fn and fixes its binding strategy.
//
// Accepted inputs: an optional leading context.Context, then (when
// withContext is set) exactly one request-context parameter, then zero or
// more positional parameters. Accepted outputs: none, a result, an error,
// or a result and an error.
func newFuncHandler(fn any, withContext bool) (*funcHandler, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, errors.New("dispatch: handler must be a function")
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, errors.New("dispatch: variadic handlers are not supported")
	}

	h := &funcHandler{fn: v, results: -1, errs: -1}

	in := 0
	if t.NumIn() > in && t.In(in) == ctxType {
		h.wantsCtx = true
		in++
	}
	if withContext {
		if t.NumIn() <= in {
			return nil, errors.New("dispatch: context handler must declare a context parameter")
		}
		h.rcSlot = t.In(in)
		in++
	}
	for ; in < t.NumIn(); in++ {
		h.argTypes = append(h.argTypes, t.In(in))
	}
	h.rawArgs = len(h.argTypes) == 1 && h.argTypes[0] == paramsType

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errType {
			h.errs = 0
		} else {
			h.results = 0
		}
	case 2:
		if t.Out(1) != errType {
			return nil, errors.New("dispatch: second return value must be error")
		}
		h.results = 0
		h.errs = 1
	default:
		return nil, errors.New("dispatch: too many return values")
	}

	return h, nil
}

// Invoke binds params to the function's arguments and calls it. Panics are
// not handled here; the dispatcher recovers them at the per-request boundary.
func (h *funcHandler) Invoke(ctx context.Context, rc *Context, params []any) (any, error) {
	args := make([]reflect.Value, 0, len(h.argTypes)+2)
	if h.wantsCtx {
		args = append(args, reflect.ValueOf(ctx))
	}
	if h.rcSlot != nil {
		rcv, bindErr := h.bindRequestContext(rc)
		if bindErr != nil {
			return nil, bindErr
		}
		args = append(args, rcv)
	}

	if h.rawArgs {
		// Free-form handler: the whole params array, whatever its length.
		args = append(args, reflect.ValueOf(params))
	} else {
		if len(params) != len(h.argTypes) {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, jsonrpc.MessageInvalidParams)
		}
		for i, p := range params {
			av, convErr := convertParam(p, h.argTypes[i])
			if convErr != nil {
				return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, convErr.Error())
			}
			args = append(args, av)
		}
	}

	outs := h.fn.Call(args)

	if h.errs >= 0 && !outs[h.errs].IsNil() {
		return nil, outs[h.errs].Interface().(error)
	}
	if h.results >= 0 {
		return outs[h.results].Interface(), nil
	}
	return nil, nil
}

// bindRequestContext synthesizes the declared request-context argument.
//
//   - *Context receives the context as-is.
//   - map[string]any receives the host data object (when it is one) merged
//     with {"extra": extraFields}.
//   - any other type receives the host data when assignable, and is
//     otherwise bound from the request's extra fields.
//
// Failures here are invalid-request errors, not invalid-params: they
// reflect a malformed request shape, not a parameter type mismatch.
func (h *funcHandler) bindRequestContext(rc *Context) (reflect.Value, error) {
	switch h.rcSlot {
	case rcType:
		return reflect.ValueOf(rc), nil
	case mapType:
		merged := make(map[string]any)
		if m, ok := rc.HostData.(map[string]any); ok {
			for k, v := range m {
				merged[k] = v
			}
		}
		if len(rc.Extra) > 0 {
			merged["extra"] = rc.Extra
		}
		return reflect.ValueOf(merged), nil
	}

	if h.rcSlot.Kind() == reflect.Interface && h.rcSlot.NumMethod() == 0 {
		rcv := reflect.New(h.rcSlot).Elem()
		if rc.HostData != nil {
			rcv.Set(reflect.ValueOf(rc.HostData))
		}
		return rcv, nil
	}

	if rc.HostData != nil {
		hv := reflect.ValueOf(rc.HostData)
		if hv.Type().AssignableTo(h.rcSlot) {
			return hv, nil
		}
	}

	// A user type bound to the request's extra fields.
	dst := reflect.New(h.rcSlot)
	raw, err := json.Marshal(rc.Extra)
	if err == nil {
		err = json.Unmarshal(raw, dst.Interface())
	}
	if err != nil {
		return reflect.Value{}, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, err.Error())
	}
	return dst.Elem(), nil
}

// convertParam converts one positional element to its target type through a
// JSON round trip, so that struct tags and the usual decoding rules apply.
func convertParam(v any, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		rv := reflect.New(t).Elem()
		if v != nil {
			rv.Set(reflect.ValueOf(v))
		}
		return rv, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return reflect.Value{}, err
	}
	dst := reflect.New(t)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return dst.Elem(), nil
}
