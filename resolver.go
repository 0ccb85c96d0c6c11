package signet

import (
	"context"
	"crypto"
	"fmt"
	"strings"
)

// KeyRequest carries the untrusted header fields a key-set resolver may
// use to narrow its candidates. Both fields come straight from the token
// header and must not select behavior beyond candidate filtering.
type KeyRequest struct {
	KeyID     string
	Algorithm string
}

// VerificationKey is one candidate produced by a KeySetResolver.
type VerificationKey struct {
	// KeyID mirrors the JWK "kid" member. Empty matches any token.
	KeyID string
	// Algorithm restricts the key to a single algorithm, as the JWK
	// "alg" member does. Empty means any algorithm the key type fits.
	Algorithm string
	// Public is the key material.
	Public crypto.PublicKey
}

// KeySetResolver yields candidate verification keys for a token header.
// Implementations own their caching and refresh policy; the engine calls
// ResolveKeys once per verification and never caches results itself.
// Resolvers are only ever consulted for asymmetric algorithms.
type KeySetResolver interface {
	ResolveKeys(ctx context.Context, req KeyRequest) ([]VerificationKey, error)
}

// KeySetResolverFunc adapts a function to the KeySetResolver interface.
type KeySetResolverFunc func(ctx context.Context, req KeyRequest) ([]VerificationKey, error)

// ResolveKeys completes the KeySetResolver interface.
func (fn KeySetResolverFunc) ResolveKeys(ctx context.Context, req KeyRequest) ([]VerificationKey, error) {
	return fn(ctx, req)
}

// StaticKeySet builds a resolver over a fixed candidate list. Keys with a
// KeyID only match tokens declaring the same kid; keys without one match
// any token. Candidates keep their registration order.
func StaticKeySet(keys ...VerificationKey) KeySetResolver {
	fixed := make([]VerificationKey, len(keys))
	copy(fixed, keys)
	return KeySetResolverFunc(func(_ context.Context, req KeyRequest) ([]VerificationKey, error) {
		out := make([]VerificationKey, 0, len(fixed))
		for _, k := range fixed {
			if req.KeyID != "" && k.KeyID != "" && k.KeyID != req.KeyID {
				continue
			}
			if k.Algorithm != "" && req.Algorithm != "" && k.Algorithm != req.Algorithm {
				continue
			}
			out = append(out, k)
		}
		return out, nil
	})
}

// isSymmetricAlgorithm splits the supported set into its two families.
// The token's declared algorithm is trusted for exactly this split and
// nothing more.
func isSymmetricAlgorithm(alg string) bool { return strings.HasPrefix(alg, "HS") }

// asymmetricAlgorithms is the full allow-list applied when delegating to
// a key-set resolver without a caller-supplied restriction. HS entries
// are deliberately impossible here.
var asymmetricAlgorithms = []string{
	"RS256", "RS384", "RS512",
	"PS256", "PS384", "PS512",
	"ES256", "ES384", "ES512",
	"EdDSA",
}

// keyCandidate is one verification attempt's key material.
type keyCandidate struct {
	keyID    string
	material any
}

// verificationCandidates resolves key material for a token's declared
// algorithm, in attempt order.
//
// Symmetric algorithms are satisfiable only by a locally configured
// secret; a key-set resolver is never consulted for them. Asymmetric
// algorithms prefer the resolver when one is configured; the local key
// serves as fallback when it fits and the resolver yields nothing.
func (e *Engine) verificationCandidates(ctx context.Context, alg, kid string) ([]keyCandidate, error) {
	local := e.cfg.Keys.Signing

	if isSymmetricAlgorithm(alg) {
		if local.kind != keySecret {
			return nil, ErrNoMatchingKey
		}
		material, err := local.verificationMaterial()
		if err != nil {
			return nil, err
		}
		return []keyCandidate{{material: material}}, nil
	}

	if e.cfg.Keys.Resolver != nil {
		keys, err := e.cfg.Keys.Resolver.ResolveKeys(ctx, KeyRequest{KeyID: kid, Algorithm: alg})
		if err != nil {
			// Remote resolution failures are ordinary verification
			// failures, not retried and not escalated.
			return nil, fmt.Errorf("%w: resolver: %v", ErrNoMatchingKey, err)
		}
		candidates := make([]keyCandidate, 0, len(keys))
		for _, k := range keys {
			if k.Algorithm != "" && k.Algorithm != alg {
				continue
			}
			if !publicKeySupportsAlgorithm(k.Public, alg) {
				continue
			}
			candidates = append(candidates, keyCandidate{keyID: k.KeyID, material: k.Public})
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	if (local.kind == keyPrivate || local.kind == keyPublic) && local.supportsAlgorithm(alg) {
		material, err := local.verificationMaterial()
		if err != nil {
			return nil, err
		}
		return []keyCandidate{{material: material}}, nil
	}

	return nil, ErrNoMatchingKey
}

// allowedAlgorithms derives the verification allow-list: per-call override,
// then configured override, then the union of what the local key can verify
// and, when a resolver is configured, the full asymmetric family.
func (e *Engine) allowedAlgorithms(override []string) []string {
	if len(override) > 0 {
		return override
	}
	if len(e.cfg.Validation.Algorithms) > 0 {
		return e.cfg.Validation.Algorithms
	}
	out := append([]string(nil), e.cfg.Keys.Signing.verificationAlgorithms()...)
	if e.cfg.Keys.Resolver != nil {
		out = appendMissingAlgorithms(out, asymmetricAlgorithms...)
	}
	return out
}

func appendMissingAlgorithms(list []string, algs ...string) []string {
	for _, alg := range algs {
		if !algorithmInList(alg, list) {
			list = append(list, alg)
		}
	}
	return list
}

func algorithmInList(alg string, list []string) bool {
	for _, candidate := range list {
		if candidate == alg {
			return true
		}
	}
	return false
}

func publicKeySupportsAlgorithm(pub crypto.PublicKey, alg string) bool {
	key := Key{kind: keyPublic, pub: pub}
	return key.supportsAlgorithm(alg)
}
