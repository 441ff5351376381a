// Package jsonrpc defines the JSON-RPC 2.0 wire model used by the dispatcher.
//
// This package implements the request and response objects of the JSON-RPC
// 2.0 specification (https://www.jsonrpc.org/specification): the typed
// protocol Error with the standard error codes, parsing and validation of
// request objects, and response construction.
//
// # Structured values
//
// The package operates on decoded JSON trees as produced by encoding/json
// into an empty interface: nil, bool, json.Number (or any numeric kind),
// string, []any and map[string]any. Text decoding for the dispatcher goes
// through the codec package, which preserves numbers as json.Number so that
// request ids are echoed back without loss.
//
// # The Discarded sentinel
//
// Discarded is a sentinel value distinct from nil (JSON null). It marks an
// absent request id (distinguishing a notification from an explicit null
// id) and, as a processing result, means "emit no output at all".
//
// # Requests
//
// ParseRequest extracts the envelope from a decoded object and normalizes
// it: params become an array (absent params turn into an empty array, an
// object is wrapped as a single-element array), an absent id becomes
// Discarded, and all members outside the four reserved keys are collected
// into Extra. Validate then checks the envelope in a fixed order: version,
// params shape, method name, id type. The first failure wins, so a request
// with both a bad version and a bad id reports the version error.
//
// # Errors
//
// Every protocol failure is a *Error carrying one of the standard codes.
// Wrap coerces arbitrary Go errors into *Error, mapping anything that is
// not already a protocol error to CodeInternalError with the native error
// text as the message.
package jsonrpc
