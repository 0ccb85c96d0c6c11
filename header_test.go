package signet

import (
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"testing"
)

func TestBuildHeaderDefaults(t *testing.T) {
	out := buildHeader(HeaderDefaults{}, newSignOptions(nil))
	if len(out) != 1 || out["typ"] != "JWT" {
		t.Fatalf("expected bare JWT typ fallback, got %v", out)
	}

	defaults := HeaderDefaults{
		Type:        "at+jwt",
		ContentType: "example",
		Critical:    []string{"b64"},
	}
	out = buildHeader(defaults, newSignOptions(nil))
	if out["typ"] != "at+jwt" {
		t.Fatalf("expected configured typ, got %v", out["typ"])
	}
	if out["cty"] != "example" {
		t.Fatalf("expected configured cty, got %v", out["cty"])
	}
	crit, ok := out["crit"].([]string)
	if !ok || len(crit) != 1 || crit[0] != "b64" {
		t.Fatalf("expected crit [b64], got %v", out["crit"])
	}

	// The built header owns its crit slice.
	defaults.Critical[0] = "mutated"
	if crit[0] != "b64" {
		t.Fatalf("expected crit copy to be isolated, got %v", crit)
	}
}

func TestBuildHeaderKeyIDPrecedence(t *testing.T) {
	defaults := HeaderDefaults{KeyID: "cfg"}

	out := buildHeader(defaults, newSignOptions(nil))
	if out["kid"] != "cfg" {
		t.Fatalf("expected configured kid, got %v", out["kid"])
	}

	out = buildHeader(defaults, newSignOptions([]SignOption{WithKeyID("call")}))
	if out["kid"] != "call" {
		t.Fatalf("expected per-call kid to win, got %v", out["kid"])
	}

	out = buildHeader(defaults, newSignOptions([]SignOption{WithKeyID("")}))
	if _, present := out["kid"]; present {
		t.Fatalf("expected empty per-call kid to suppress the header, got %v", out["kid"])
	}
}

func TestBuildHeaderExtraAndPerCallMembers(t *testing.T) {
	defaults := HeaderDefaults{Extra: map[string]any{"x5t": "abc"}}
	o := newSignOptions([]SignOption{
		WithHeader("typ", "at+jwt"),
		WithHeader("x5t", "zzz"),
		WithHeader("url", "https://issuer.example"),
	})

	out := buildHeader(defaults, o)
	if out["typ"] != "at+jwt" {
		t.Fatalf("expected per-call typ override, got %v", out["typ"])
	}
	if out["x5t"] != "zzz" {
		t.Fatalf("expected per-call member to win over configured extra, got %v", out["x5t"])
	}
	if out["url"] != "https://issuer.example" {
		t.Fatalf("expected per-call member to land, got %v", out["url"])
	}
}

func TestResolveSigningAlgorithm(t *testing.T) {
	secret := SecretKey(testSecret)
	rsaKey, err := PrivateKey(newRSAKey(t))
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	ecKey, err := PrivateKey(newECKey(t, elliptic.P256()))
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	_, edPriv := newEdKeys(t)
	edKey, err := PrivateKey(edPriv)
	if err != nil {
		t.Fatalf("private key: %v", err)
	}

	tests := []struct {
		name     string
		key      Key
		defaults HeaderDefaults
		opts     []SignOption
		want     string
		wantErr  error
	}{
		{name: "per-call wins", key: secret, defaults: HeaderDefaults{Algorithm: "HS512"}, opts: []SignOption{WithAlgorithm("HS384")}, want: "HS384"},
		{name: "configured default", key: secret, defaults: HeaderDefaults{Algorithm: "HS512"}, want: "HS512"},
		{name: "derived for secret", key: secret, want: "HS256"},
		{name: "derived for rsa", key: rsaKey, want: "RS256"},
		{name: "derived for p256", key: ecKey, want: "ES256"},
		{name: "derived for ed25519", key: edKey, want: "EdDSA"},
		{name: "explicit rsa pss", key: rsaKey, opts: []SignOption{WithAlgorithm("PS256")}, want: "PS256"},
		{name: "mismatched family", key: rsaKey, opts: []SignOption{WithAlgorithm("HS256")}, wantErr: ErrAlgorithmKeyMismatch},
		{name: "mismatched curve", key: ecKey, opts: []SignOption{WithAlgorithm("ES384")}, wantErr: ErrAlgorithmKeyMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			alg, err := resolveSigningAlgorithm(tc.key, tc.defaults, newSignOptions(tc.opts))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if alg != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, alg)
			}
		})
	}
}

func TestResolveEncryptionAlgorithms(t *testing.T) {
	keyAlg, enc := resolveEncryptionAlgorithms(EncryptionDefaults{}, newSignOptions(nil))
	if keyAlg != "RSA-OAEP-256" || enc != "A256GCM" {
		t.Fatalf("expected standard fallbacks, got %s/%s", keyAlg, enc)
	}

	defaults := EncryptionDefaults{KeyAlgorithm: "dir", ContentEncryption: "A128GCM"}
	keyAlg, enc = resolveEncryptionAlgorithms(defaults, newSignOptions(nil))
	if keyAlg != "dir" || enc != "A128GCM" {
		t.Fatalf("expected configured pair, got %s/%s", keyAlg, enc)
	}

	o := newSignOptions([]SignOption{WithAlgorithm("ECDH-ES"), WithContentEncryption("A192GCM")})
	keyAlg, enc = resolveEncryptionAlgorithms(defaults, o)
	if keyAlg != "ECDH-ES" || enc != "A192GCM" {
		t.Fatalf("expected per-call pair to win, got %s/%s", keyAlg, enc)
	}
}

func TestDecodeHeaderFields(t *testing.T) {
	seg := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256","typ":"JWT","cty":"JWT","kid":"k1","enc":"A256GCM"}`))
	header, err := decodeHeader(seg + ".payload.sig")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if header.Algorithm != "ES256" || header.Type != "JWT" || header.ContentType != "JWT" {
		t.Fatalf("unexpected header %+v", header)
	}
	if header.KeyID != "k1" || header.Encryption != "A256GCM" {
		t.Fatalf("unexpected header %+v", header)
	}
}

func TestDecodeHeaderMalformed(t *testing.T) {
	notJSON := base64.RawURLEncoding.EncodeToString([]byte("hello"))
	noAlg := base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"JWT"}`))

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"no separator", "justonesegment"},
		{"empty header segment", ".payload.sig"},
		{"invalid base64url", "!!!.payload.sig"},
		{"header not json", notJSON + ".payload.sig"},
		{"header missing alg", noAlg + ".payload.sig"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeHeader(tc.token); !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("expected ErrTokenMalformed, got %v", err)
			}
		})
	}
}

func TestSegmentCount(t *testing.T) {
	tests := []struct {
		token string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"a.b", 2},
		{"a.b.c", 3},
		{"a.b.c.d.e", 5},
		{"..", 3},
	}
	for _, tc := range tests {
		if got := segmentCount(tc.token); got != tc.want {
			t.Fatalf("segmentCount(%q): expected %d, got %d", tc.token, tc.want, got)
		}
	}
}
