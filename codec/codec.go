// Package codec frames JSON-RPC payloads for a transport.
//
// A Codec converts between raw bytes and the decoded value trees the
// dispatcher operates on (nil, bool, numbers, string, []any,
// map[string]any). Two framings are provided: JSON, the wire format of the
// JSON-RPC 2.0 specification, and CBOR for hosts that exchange the same
// envelopes in binary form.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// ErrTrailingData is returned by JSON.Decode when the input continues past
// the first complete value.
var ErrTrailingData = errors.New("unexpected data after top-level value")

// Codec converts between transport bytes and decoded value trees.
type Codec interface {
	// Decode parses data into a value tree. Object keys decode to
	// map[string]any regardless of framing.
	Decode(data []byte) (any, error)
	// DecodeInto parses data into v, which must be a pointer.
	DecodeInto(data []byte, v any) error
	// Encode serializes a value tree.
	Encode(v any) ([]byte, error)
	// ContentType returns the MIME type of the framing.
	ContentType() string
}

// JSON frames payloads as JSON text. Numbers decode to json.Number so that
// request ids survive the round trip without loss.
var JSON Codec = jsonCodec{}

// CBOR frames payloads as CBOR. Maps decode with string keys to stay
// interchangeable with JSON-decoded trees.
var CBOR Codec = newCBORCodec()

type jsonCodec struct{}

func (jsonCodec) Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return v, nil
}

func (jsonCodec) DecodeInto(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (jsonCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// json.Encoder appends a newline; the framing does not want one.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (jsonCodec) ContentType() string {
	return "application/json"
}

type cborCodec struct {
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		// Static options; cannot fail at runtime.
		panic(err)
	}
	return cborCodec{dec: dm}
}

func (c cborCodec) Decode(data []byte) (any, error) {
	var v any
	if err := c.dec.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c cborCodec) DecodeInto(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

func (cborCodec) Encode(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (cborCodec) ContentType() string {
	return "application/cbor"
}
