package middleware

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrTokenFormat  = errors.New("invalid token format")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenConfig  = errors.New("invalid token codec configuration")
)

// maxTokenLen bounds the amount of attacker-controlled data we will
// decode/allocate for a bearer token value.
const maxTokenLen = 8192

// DefaultAEADKeySize is the expected key size (in bytes) for the default
// AEAD implementation (chacha20poly1305).
const DefaultAEADKeySize = chacha20poly1305.KeySize

// tokenAAD binds sealed tokens to their use as RPC bearer tokens, so a
// ciphertext lifted from another context will not open here.
const tokenAAD = "jsondispatch:token"

// TokenCodec seals and opens opaque API tokens.
//
// Format: [keyID] "." [sealed_b64]
// where sealed = nonce || AEAD.Seal(nil, nonce, cbor(claims), aad).
// Key rotation: Keys contains all accepted keys; KeyID selects the current
// sealing key. The nonce is randomly generated per token.
type TokenCodec struct {
	KeyID string
	Keys  map[string][]byte

	// NewAEAD constructs the AEAD used to seal/open tokens.
	// Defaults to chacha20poly1305.NewX.
	NewAEAD func(key []byte) (cipher.AEAD, error)
}

// NewTokenCodec creates a codec sealing with keys[keyID] and accepting
// every key in keys. All keys are validated against the AEAD constructor.
func NewTokenCodec(keyID string, keys map[string][]byte) (*TokenCodec, error) {
	if keys == nil {
		return nil, errors.New("keys must not be nil")
	}
	if _, ok := keys[keyID]; !ok {
		return nil, errors.New("keyID not found in keys")
	}
	for id, k := range keys {
		if _, err := chacha20poly1305.NewX(k); err != nil {
			return nil, fmt.Errorf("invalid key %s: %w", id, err)
		}
	}
	return &TokenCodec{
		KeyID:   keyID,
		Keys:    keys,
		NewAEAD: chacha20poly1305.NewX,
	}, nil
}

// Seal encrypts claims into a token string.
func (tc *TokenCodec) Seal(claims any) (string, error) {
	if tc == nil || tc.NewAEAD == nil {
		return "", ErrTokenConfig
	}
	key, ok := tc.Keys[tc.KeyID]
	if !ok {
		return "", ErrTokenConfig
	}
	aead, err := tc.NewAEAD(key)
	if err != nil {
		return "", err
	}

	plain, err := cbor.Marshal(claims)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, plain, []byte(tokenAAD))
	return tc.KeyID + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token string into v.
func (tc *TokenCodec) Open(token string, v any) error {
	if tc == nil || tc.NewAEAD == nil {
		return ErrTokenConfig
	}
	if len(token) == 0 || len(token) > maxTokenLen {
		return ErrTokenFormat
	}
	keyID, sealedB64, ok := strings.Cut(token, ".")
	if !ok || keyID == "" || sealedB64 == "" {
		return ErrTokenFormat
	}
	key, ok := tc.Keys[keyID]
	if !ok {
		return ErrTokenInvalid
	}

	sealed, err := base64.RawURLEncoding.DecodeString(sealedB64)
	if err != nil {
		return ErrTokenFormat
	}

	aead, err := tc.NewAEAD(key)
	if err != nil {
		return err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return ErrTokenFormat
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(tokenAAD))
	if err != nil {
		return ErrTokenInvalid
	}
	return cbor.Unmarshal(plain, v)
}

// TokenAuth verifies a sealed bearer token issued with tc.Seal. The opened
// claims are stored in the request context (see ClaimsFromContext); any
// failure rejects the request with 401.
func TokenAuth(tc *TokenCodec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims := make(map[string]any)
			if err := tc.Open(raw, &claims); err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, withClaims(r, claims))
		})
	}
}
