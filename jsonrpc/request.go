package jsonrpc

import "encoding/json"

// Version is the protocol version accepted by Validate.
const Version = "2.0"

// Reserved request object members. Everything else ends up in Request.Extra.
const (
	memberJSONRPC = "jsonrpc"
	memberMethod  = "method"
	memberParams  = "params"
	memberID      = "id"
)

// Request is a parsed JSON-RPC 2.0 request object.
//
// After a successful ParseRequest, Params is always an array: absent params
// become an empty array and object params are wrapped as a single-element
// array. ID is Discarded when the request carries no id member (a
// notification). Extra holds every request member outside the four reserved
// keys; handlers bound with a context parameter can observe it.
type Request struct {
	JSONRPC string
	Method  string
	Params  []any
	ID      any
	Extra   map[string]any

	// Set when the original params member was neither an array nor an
	// object. The error is deferred to Validate so that version problems
	// take precedence.
	badParams bool
}

// ParseRequest extracts a Request from a decoded JSON value.
//
// The value must be an object with correctly typed "jsonrpc" and "method"
// members; any missing or mistyped required member yields a
// CodeInvalidRequest error naming the member and the expected type.
// Shape problems with "params" and "id" are not reported here; they are
// deferred to Validate, which checks the envelope in the order mandated by
// the protocol.
func ParseRequest(value any) (*Request, *Error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, NewError(CodeInvalidRequest, MessageNotJSONRPC2Request)
	}

	req := &Request{
		Params: []any{},
		ID:     Discarded,
	}

	version, ok := obj[memberJSONRPC]
	if !ok {
		return nil, NewError(CodeInvalidRequest, `required member "jsonrpc" is missing`)
	}
	if req.JSONRPC, ok = version.(string); !ok {
		return nil, NewError(CodeInvalidRequest, `member "jsonrpc" must be a string`)
	}

	method, ok := obj[memberMethod]
	if !ok {
		return nil, NewError(CodeInvalidRequest, `required member "method" is missing`)
	}
	if req.Method, ok = method.(string); !ok {
		return nil, NewError(CodeInvalidRequest, `member "method" must be a string`)
	}

	if params, ok := obj[memberParams]; ok {
		switch p := params.(type) {
		case []any:
			req.Params = p
		case map[string]any:
			req.Params = []any{p}
		default:
			req.badParams = true
		}
	}

	if id, ok := obj[memberID]; ok {
		req.ID = id
	}

	extra := make(map[string]any, len(obj))
	for k, v := range obj {
		switch k {
		case memberJSONRPC, memberMethod, memberParams, memberID:
		default:
			extra[k] = v
		}
	}
	req.Extra = extra

	return req, nil
}

// Validate checks the request envelope. The checks run in a fixed order and
// the first failure wins: version, params shape, method name, id type.
func (r *Request) Validate() *Error {
	if r.JSONRPC != Version {
		return NewError(CodeInvalidRequest, MessageNotJSONRPC2Request)
	}
	if r.badParams {
		return NewError(CodeInvalidParams, MessageBadParamsType)
	}
	if r.Method == "" {
		return NewError(CodeInvalidRequest, MessageEmptyMethod)
	}
	if !ValidID(r.ID) {
		return NewError(CodeInvalidRequest, MessageBadIDType)
	}
	return nil
}

// Notification reports whether the request carries no id.
func (r *Request) Notification() bool {
	return IsDiscarded(r.ID)
}

// ValidID reports whether id is a legal request id: a string, a number,
// null, or the Discarded sentinel (an absent id).
func ValidID(id any) bool {
	switch id.(type) {
	case nil, string, json.Number,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return IsDiscarded(id)
}

// RequestID recovers the best-known id from a raw, not-yet-parsed request
// value. An absent id and an id of an invalid shape both degrade to nil
// (JSON null), so that an error response can always be keyed.
func RequestID(value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := obj[memberID]
	if !ok || !ValidID(id) {
		return nil
	}
	return id
}
