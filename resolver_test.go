package signet

import (
	"context"
	"crypto/elliptic"
	"errors"
	"strings"
	"testing"
)

// countResolver counts ResolveKeys calls and replays a fixed answer.
type countResolver struct {
	calls int
	keys  []VerificationKey
	err   error
}

func (r *countResolver) ResolveKeys(_ context.Context, _ KeyRequest) ([]VerificationKey, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.keys, nil
}

func resolvedKeyIDs(t *testing.T, r KeySetResolver, req KeyRequest) []string {
	t.Helper()
	keys, err := r.ResolveKeys(context.Background(), req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.KeyID
	}
	return ids
}

func TestStaticKeySetFiltering(t *testing.T) {
	rsaKey := newRSAKey(t)
	edPub, _ := newEdKeys(t)
	ecKey := newECKey(t, elliptic.P256())

	set := StaticKeySet(
		VerificationKey{KeyID: "k1", Algorithm: "RS256", Public: &rsaKey.PublicKey},
		VerificationKey{KeyID: "k2", Public: edPub},
		VerificationKey{Public: &ecKey.PublicKey},
	)

	tests := []struct {
		name string
		req  KeyRequest
		want string
	}{
		{"no hints", KeyRequest{}, "k1 k2 "},
		{"kid narrows", KeyRequest{KeyID: "k1"}, "k1 "},
		{"alg narrows", KeyRequest{Algorithm: "EdDSA"}, "k2 "},
		{"kid with neutral alg", KeyRequest{KeyID: "k2", Algorithm: "RS256"}, "k2 "},
		{"unknown kid keeps anonymous", KeyRequest{KeyID: "nope"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := strings.Join(resolvedKeyIDs(t, set, tc.req), " ")
			if got != tc.want {
				t.Fatalf("expected candidates %q, got %q", tc.want, got)
			}
		})
	}
}

func TestStaticKeySetCopiesInput(t *testing.T) {
	keys := []VerificationKey{{KeyID: "a"}}
	set := StaticKeySet(keys...)
	keys[0].KeyID = "mutated"

	got := resolvedKeyIDs(t, set, KeyRequest{})
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected isolated candidate list, got %v", got)
	}
}

func TestVerificationCandidatesSymmetricLocalOnly(t *testing.T) {
	resolver := &countResolver{}
	cfg := tokenTestConfig()
	cfg.Keys.Resolver = resolver
	engine := newTokenEngine(t, cfg)
	defer engine.Close()

	candidates, err := engine.verificationCandidates(context.Background(), "HS256", "")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected single local candidate, got %d", len(candidates))
	}
	if resolver.calls != 0 {
		t.Fatalf("expected resolver untouched for symmetric algorithms, got %d calls", resolver.calls)
	}
}

func TestVerificationCandidatesSymmetricWithoutSecret(t *testing.T) {
	edPub, _ := newEdKeys(t)
	public, err := PublicKey(edPub)
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	resolver := &countResolver{}
	cfg := DefaultConfig()
	cfg.Keys.Signing = public
	cfg.Keys.Resolver = resolver
	engine := newTokenEngine(t, cfg)
	defer engine.Close()

	if _, err := engine.verificationCandidates(context.Background(), "HS256", ""); !errors.Is(err, ErrNoMatchingKey) {
		t.Fatalf("expected ErrNoMatchingKey, got %v", err)
	}
	if resolver.calls != 0 {
		t.Fatalf("expected resolver untouched, got %d calls", resolver.calls)
	}
}

func TestVerificationCandidatesResolverFiltering(t *testing.T) {
	edPubA, _ := newEdKeys(t)
	edPubC, _ := newEdKeys(t)
	rsaKey := newRSAKey(t)

	cfg := DefaultConfig()
	cfg.Keys.Resolver = &countResolver{keys: []VerificationKey{
		{KeyID: "ka", Algorithm: "EdDSA", Public: edPubA},
		{KeyID: "kb", Public: &rsaKey.PublicKey},
		{KeyID: "kc", Algorithm: "ES256", Public: edPubC},
	}}
	engine := newTokenEngine(t, cfg)
	defer engine.Close()

	candidates, err := engine.verificationCandidates(context.Background(), "EdDSA", "")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].keyID != "ka" {
		t.Fatalf("expected only the usable EdDSA candidate, got %+v", candidates)
	}
}

func TestVerificationCandidatesResolverErrorWrapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keys.Resolver = &countResolver{err: errors.New("jwks fetch: status 503")}
	engine := newTokenEngine(t, cfg)
	defer engine.Close()

	_, err := engine.verificationCandidates(context.Background(), "EdDSA", "")
	if !errors.Is(err, ErrNoMatchingKey) {
		t.Fatalf("expected ErrNoMatchingKey, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected resolver cause preserved, got %v", err)
	}
}

func TestVerificationCandidatesLocalFallback(t *testing.T) {
	_, edPriv := newEdKeys(t)
	private, err := PrivateKey(edPriv)
	if err != nil {
		t.Fatalf("private key: %v", err)
	}

	// Resolver yields nothing usable; the local key serves instead.
	rsaKey := newRSAKey(t)
	resolver := &countResolver{keys: []VerificationKey{{KeyID: "kb", Public: &rsaKey.PublicKey}}}
	cfg := DefaultConfig()
	cfg.Keys.Signing = private
	cfg.Keys.Resolver = resolver
	engine := newTokenEngine(t, cfg)
	defer engine.Close()

	candidates, err := engine.verificationCandidates(context.Background(), "EdDSA", "")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].keyID != "" {
		t.Fatalf("expected local fallback candidate, got %+v", candidates)
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", resolver.calls)
	}

	// No resolver and a local key of the wrong family leaves nothing.
	cfg2 := tokenTestConfig()
	engine2 := newTokenEngine(t, cfg2)
	defer engine2.Close()
	if _, err := engine2.verificationCandidates(context.Background(), "EdDSA", ""); !errors.Is(err, ErrNoMatchingKey) {
		t.Fatalf("expected ErrNoMatchingKey, got %v", err)
	}
}

func TestAllowedAlgorithmsDerivation(t *testing.T) {
	_, edPriv := newEdKeys(t)
	private, err := PrivateKey(edPriv)
	if err != nil {
		t.Fatalf("private key: %v", err)
	}

	secretOnly := newTokenEngine(t, tokenTestConfig())
	defer secretOnly.Close()
	if got := strings.Join(secretOnly.allowedAlgorithms(nil), " "); got != "HS256 HS384 HS512" {
		t.Fatalf("unexpected derived list %q", got)
	}

	cfgResolver := tokenTestConfig()
	cfgResolver.Keys.Resolver = &countResolver{}
	withResolver := newTokenEngine(t, cfgResolver)
	defer withResolver.Close()
	derived := withResolver.allowedAlgorithms(nil)
	if len(derived) != 13 {
		t.Fatalf("expected HS set plus asymmetric family, got %v", derived)
	}
	for _, alg := range []string{"HS256", "RS256", "PS512", "ES384", "EdDSA"} {
		if !algorithmInList(alg, derived) {
			t.Fatalf("expected %s in derived list %v", alg, derived)
		}
	}

	cfgEd := DefaultConfig()
	cfgEd.Keys.Signing = private
	edOnly := newTokenEngine(t, cfgEd)
	defer edOnly.Close()
	if got := strings.Join(edOnly.allowedAlgorithms(nil), " "); got != "EdDSA" {
		t.Fatalf("unexpected derived list %q", got)
	}

	cfgConfigured := tokenTestConfig()
	cfgConfigured.Validation.Algorithms = []string{"HS384"}
	configured := newTokenEngine(t, cfgConfigured)
	defer configured.Close()
	if got := strings.Join(configured.allowedAlgorithms(nil), " "); got != "HS384" {
		t.Fatalf("expected configured override, got %q", got)
	}
	if got := strings.Join(configured.allowedAlgorithms([]string{"ES256"}), " "); got != "ES256" {
		t.Fatalf("expected per-call override to win, got %q", got)
	}
}

func TestAppendMissingAlgorithms(t *testing.T) {
	out := appendMissingAlgorithms([]string{"HS256", "RS256"}, "RS256", "ES256")
	if got := strings.Join(out, " "); got != "HS256 RS256 ES256" {
		t.Fatalf("expected duplicates skipped in order, got %q", got)
	}
	if !algorithmInList("ES256", out) || algorithmInList("PS256", out) {
		t.Fatal("algorithmInList misreported membership")
	}
}
