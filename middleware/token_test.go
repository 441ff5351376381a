package middleware

import (
	"bytes"
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	key := make([]byte, DefaultAEADKeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	tc, err := NewTokenCodec("v1", map[string][]byte{"v1": key})
	if err != nil {
		t.Fatal(err)
	}
	return tc
}

func TestNewTokenCodecValidation(t *testing.T) {
	good := make([]byte, DefaultAEADKeySize)

	tests := []struct {
		name  string
		keyID string
		keys  map[string][]byte
	}{
		{"nil keys", "v1", nil},
		{"keyID not present", "v2", map[string][]byte{"v1": good}},
		{"short key", "v1", map[string][]byte{"v1": make([]byte, 16)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenCodec(tt.keyID, tt.keys); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	tc := newTestCodec(t)

	token, err := tc.Seal(map[string]string{"sub": "alice", "role": "admin"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(token, "v1.") {
		t.Errorf("token %q does not carry the key id", token)
	}

	var claims map[string]string
	if err := tc.Open(token, &claims); err != nil {
		t.Fatal(err)
	}
	if claims["sub"] != "alice" || claims["role"] != "admin" {
		t.Errorf("got claims %v", claims)
	}
}

func TestSealProducesUniqueTokens(t *testing.T) {
	tc := newTestCodec(t)

	a, err := tc.Seal(map[string]string{"sub": "alice"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := tc.Seal(map[string]string{"sub": "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("sealing the same claims twice must produce distinct tokens")
	}
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	tc := newTestCodec(t)

	token, err := tc.Seal(map[string]string{"sub": "alice"})
	if err != nil {
		t.Fatal(err)
	}

	raw := []byte(token)
	raw[len(raw)-1] ^= 1
	var claims map[string]string
	if err := tc.Open(string(raw), &claims); !errors.Is(err, ErrTokenInvalid) && !errors.Is(err, ErrTokenFormat) {
		t.Errorf("got %v, want a token rejection", err)
	}
}

func TestOpenRejectsUnknownKeyID(t *testing.T) {
	tc := newTestCodec(t)

	token, err := tc.Seal(map[string]string{"sub": "alice"})
	if err != nil {
		t.Fatal(err)
	}

	forged := "v9." + strings.TrimPrefix(token, "v1.")
	var claims map[string]string
	if err := tc.Open(forged, &claims); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestOpenRejectsBadFormat(t *testing.T) {
	tc := newTestCodec(t)

	tests := []string{
		"",
		"no-dot",
		".leading-dot",
		"v1.",
		"v1.!!!not-base64!!!",
		"v1.c2hvcnQ", // too short for nonce + overhead
		strings.Repeat("a", maxTokenLen+1),
	}

	for _, token := range tests {
		var claims map[string]string
		if err := tc.Open(token, &claims); !errors.Is(err, ErrTokenFormat) {
			t.Errorf("Open(%.20q) = %v, want ErrTokenFormat", token, err)
		}
	}
}

func TestOpenWithRotatedKeys(t *testing.T) {
	old := newTestCodec(t)

	token, err := old.Seal(map[string]string{"sub": "alice"})
	if err != nil {
		t.Fatal(err)
	}

	// A codec sealing with a new key still accepts tokens from the old one.
	newKey := make([]byte, DefaultAEADKeySize)
	if _, err := rand.Read(newKey); err != nil {
		t.Fatal(err)
	}
	rotated, err := NewTokenCodec("v2", map[string][]byte{
		"v1": old.Keys["v1"],
		"v2": newKey,
	})
	if err != nil {
		t.Fatal(err)
	}

	var claims map[string]string
	if err := rotated.Open(token, &claims); err != nil {
		t.Fatal(err)
	}
	if claims["sub"] != "alice" {
		t.Errorf("got claims %v", claims)
	}
}

func TestTokenAuth(t *testing.T) {
	tc := newTestCodec(t)

	token, err := tc.Seal(map[string]any{"sub": "alice"})
	if err != nil {
		t.Fatal(err)
	}

	var gotClaims map[string]any
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := TokenAuth(tc)(inner)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(nil))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("got status %d, want 204", w.Code)
		}
		if gotClaims["sub"] != "alice" {
			t.Errorf("got claims %v", gotClaims)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(nil))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
		if auth := w.Header().Get("WWW-Authenticate"); auth != "Bearer" {
			t.Errorf("got WWW-Authenticate %q, want Bearer", auth)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(nil))
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
	})
}
