// Package client is a minimal JSON-RPC 2.0 client over HTTP.
//
// It issues single calls and notifications against an endpoint served by
// rpchttp (or any conforming JSON-RPC over HTTP server). Connection
// management, retries, and streaming are out of scope; the underlying
// http.Client handles pooling.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/mnehpets/jsondispatch/codec"
	"github.com/mnehpets/jsondispatch/jsonrpc"
)

// ErrEmptyResponse is returned by Call when the server answered a request
// that carried an id with no response body.
var ErrEmptyResponse = errors.New("client: empty response to a call")

// Client issues JSON-RPC 2.0 requests against a single endpoint URL.
type Client struct {
	endpoint string
	hc       *http.Client
	c        codec.Codec
	ts       oauth2.TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithCodec selects the request framing. The default is codec.JSON.
func WithCodec(cc codec.Codec) Option {
	return func(c *Client) {
		c.c = cc
	}
}

// WithTokenSource authenticates every request with an OAuth2 bearer token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.ts = ts
	}
}

// New creates a client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		hc:       &http.Client{},
		c:        codec.JSON,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ts != nil {
		c.hc = &http.Client{
			Transport: &oauth2.Transport{Source: c.ts, Base: c.hc.Transport},
			Timeout:   c.hc.Timeout,
		}
	}
	return c
}

// Call invokes method with params and decodes the result member into
// result (which may be nil to discard it). params may be a slice for
// positional parameters, a map or struct for named parameters, or nil.
// A protocol-level failure is returned as a *jsonrpc.Error.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	envelope := map[string]any{
		"jsonrpc": jsonrpc.Version,
		"method":  method,
		"id":      uuid.NewString(),
	}
	if params != nil {
		envelope["params"] = params
	}

	body, err := c.post(ctx, envelope)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return ErrEmptyResponse
	}

	response, err := c.c.Decode(body)
	if err != nil {
		return fmt.Errorf("client: malformed response: %w", err)
	}
	if jsonrpc.IsErrorResponse(response) {
		return &jsonrpc.Error{
			Code:    jsonrpc.ErrorCode(response),
			Message: jsonrpc.ErrorMessage(response),
			Data:    errorData(response),
		}
	}

	if result == nil {
		return nil
	}
	obj, ok := response.(map[string]any)
	if !ok {
		return fmt.Errorf("client: unexpected response shape %T", response)
	}
	raw, err := c.c.Encode(obj["result"])
	if err != nil {
		return err
	}
	return c.c.DecodeInto(raw, result)
}

// Notify invokes method without a request id. The server sends no response;
// any HTTP-level failure is still reported.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	envelope := map[string]any{
		"jsonrpc": jsonrpc.Version,
		"method":  method,
	}
	if params != nil {
		envelope["params"] = params
	}
	_, err := c.post(ctx, envelope)
	return err
}

func (c *Client) post(ctx context.Context, envelope map[string]any) ([]byte, error) {
	data, err := c.c.Encode(envelope)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", c.c.ContentType())
	req.Header.Set("Accept", c.c.ContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNoContent:
		return nil, nil
	}
	return nil, fmt.Errorf("client: unexpected HTTP status %s", resp.Status)
}

func errorData(response any) any {
	obj, ok := response.(map[string]any)
	if !ok {
		return nil
	}
	errObj, ok := obj["error"].(map[string]any)
	if !ok {
		return nil
	}
	return errObj["data"]
}
