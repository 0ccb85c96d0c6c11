package signet

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestPeekSignedToken(t *testing.T) {
	cfg := tokenTestConfig()
	cfg.Header.KeyID = "k-main"
	engine := newTokenEngine(t, cfg)
	defer engine.Close()

	token, err := engine.Sign(Claims{"sub": "u1", "scope": "read"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	info, err := Peek(token)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if info.Encrypted {
		t.Fatal("expected signed token to report unencrypted")
	}
	if info.Algorithm() != "HS256" || info.KeyID() != "k-main" {
		t.Fatalf("unexpected header %v", info.Header)
	}
	if info.Claims.String("sub") != "u1" || info.Claims.String("scope") != "read" {
		t.Fatalf("unexpected claims %v", info.Claims)
	}
}

func TestPeekEncryptedToken(t *testing.T) {
	cfg := tokenTestConfig()
	cfg.Keys.Encryption, _ = PrivateKey(newRSAKey(t))
	engine := newTokenEngine(t, cfg)
	defer engine.Close()

	token, err := engine.Encrypt(Claims{"sub": "u1"})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	info, err := Peek(token)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if !info.Encrypted {
		t.Fatal("expected encrypted token to report encrypted")
	}
	if info.Claims != nil {
		t.Fatalf("expected nil claims for ciphertext payload, got %v", info.Claims)
	}
	if info.Algorithm() != "RSA-OAEP-256" {
		t.Fatalf("unexpected alg %q", info.Algorithm())
	}
	if enc, _ := info.Header["enc"].(string); enc != "A256GCM" {
		t.Fatalf("unexpected enc %v", info.Header["enc"])
	}
}

func TestPeekMalformedTokens(t *testing.T) {
	goodHeader := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256"}`))
	notJSON := base64.RawURLEncoding.EncodeToString([]byte("hello"))
	jsonArray := base64.RawURLEncoding.EncodeToString([]byte(`[1,2]`))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "a.b"},
		{"four segments", "a.b.c.d"},
		{"six segments", "a.b.c.d.e.f"},
		{"header not base64url", "!!!.payload.sig"},
		{"header not json", notJSON + ".payload.sig"},
		{"payload not base64url", goodHeader + ".!!!.sig"},
		{"payload not a claim set", goodHeader + "." + jsonArray + ".sig"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Peek(tc.token); !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("expected ErrTokenMalformed, got %v", err)
			}
		})
	}
}

func TestPeekDoesNotAuthenticate(t *testing.T) {
	engine := newTokenEngine(t, tokenTestConfig())
	defer engine.Close()

	token, err := engine.Sign(Claims{"sub": "u1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// Destroy the signature. Peek still reads the token; Verify must not.
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString([]byte("forged"))

	info, err := Peek(tampered)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if info.Claims.String("sub") != "u1" {
		t.Fatalf("expected readable claims, got %v", info.Claims)
	}
	if _, err := engine.Verify(context.Background(), tampered); !errors.Is(err, ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
}

func TestTokenInfoNilSafe(t *testing.T) {
	var info *TokenInfo
	if info.Algorithm() != "" || info.KeyID() != "" {
		t.Fatal("expected empty header members on nil info")
	}

	populated := &TokenInfo{Header: map[string]any{"alg": 42}}
	if populated.Algorithm() != "" {
		t.Fatal("expected non-string alg to read as empty")
	}
}
