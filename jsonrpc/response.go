package jsonrpc

import "encoding/json"

type discarded struct{}

// Discarded is the sentinel meaning "no value, emit nothing". It is
// distinct from nil (JSON null): a request with id null expects a response,
// a request with a Discarded id is a notification and must never get one.
var Discarded any = discarded{}

// IsDiscarded reports whether v is the Discarded sentinel.
func IsDiscarded(v any) bool {
	_, ok := v.(discarded)
	return ok
}

// SuccessResponse builds a success response object echoing the request id.
func SuccessResponse(result, id any) map[string]any {
	return map[string]any{
		"jsonrpc": Version,
		"result":  result,
		"id":      id,
	}
}

// ErrorResponse builds an error response object. Pass a nil id when no id
// could be recovered from the request.
func ErrorResponse(e *Error, id any) map[string]any {
	return map[string]any{
		"jsonrpc": Version,
		"error":   e.ResponseObject(),
		"id":      id,
	}
}

// IsErrorResponse reports whether v is an error response object.
func IsErrorResponse(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj["error"].(map[string]any)
	return ok
}

// ErrorCode extracts the error code from an error response.
// Returns 0 when v is not an error response.
func ErrorCode(v any) int {
	obj, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	errObj, ok := obj["error"].(map[string]any)
	if !ok {
		return 0
	}
	return asInt(errObj["code"])
}

// ErrorMessage extracts the error message from an error response.
// Returns "" when v is not an error response.
func ErrorMessage(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	errObj, ok := obj["error"].(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := errObj["message"].(string)
	return msg
}

// asInt converts the numeric kinds a decoded response may carry.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	}
	return 0
}
