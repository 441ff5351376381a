package jsonrpc

import "errors"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Canonical error messages. These texts are part of the wire contract:
// hosts and clients match on them, so they must not be reworded.
const (
	MessageNotJSONRPC2Request = "Not a JSON-RPC 2.0 request"
	MessageInvalidParams      = "Invalid parameters passed to method"
	MessageMethodNotFound     = "Method not found"
	MessageEmptyMethod        = "Method cannot be empty"
	MessageBadParamsType      = "Parameters must be either an array or an object or omitted"
	MessageBadIDType          = "ID must be either a number, a string, or null"
	MessageEmptyBatch         = "Empty batch request"
)

// Error is a JSON-RPC 2.0 protocol error.
//
// Error doubles as the normalization point for all internal failures: any
// error raised during parsing, validation, binding, or invocation that is
// not already a *Error is coerced to CodeInternalError by Wrap.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewError creates a protocol error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithData creates a protocol error carrying additional data.
func NewErrorWithData(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// Wrap coerces err into a protocol error.
//
// A *Error passes through unchanged (including wrapped ones, via
// errors.As); anything else becomes CodeInternalError with the native
// error's text as the message.
func Wrap(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

// ResponseObject renders the error as the "error" member of a response:
// {code, message}, plus data only when data is present.
func (e *Error) ResponseObject() map[string]any {
	obj := map[string]any{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Data != nil {
		obj["data"] = e.Data
	}
	return obj
}
