package signet

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Fixed fallbacks applied when neither the call nor the configuration
// supplies a value. Signing falls back to HS256 only for secret keys;
// asymmetric keys derive their algorithm from the key type instead.
const (
	headerTypeFallback        = "JWT"
	encryptionAlgFallback     = "RSA-OAEP-256"
	contentEncryptionFallback = "A256GCM"
	encryptionCtyFallback     = "JWT"
)

// buildHeader assembles every protected-header member except alg, which
// the codec owns. Precedence is per-call over configured default over the
// typ fallback; members with no value anywhere are omitted entirely
// rather than emitted empty.
func buildHeader(defaults HeaderDefaults, o *signOptions) map[string]any {
	out := make(map[string]any, 4+len(defaults.Extra)+len(o.headers))

	if defaults.Type != "" {
		out["typ"] = defaults.Type
	} else {
		out["typ"] = headerTypeFallback
	}
	if defaults.ContentType != "" {
		out["cty"] = defaults.ContentType
	}
	if len(defaults.Critical) > 0 {
		out["crit"] = append([]string(nil), defaults.Critical...)
	}
	for name, value := range defaults.Extra {
		out[name] = value
	}

	kid := defaults.KeyID
	if o.keyID != nil {
		kid = *o.keyID
	}
	if kid != "" {
		out["kid"] = kid
	} else {
		delete(out, "kid")
	}

	for name, value := range o.headers {
		out[name] = value
	}
	return out
}

// resolveSigningAlgorithm picks the signing algorithm: per-call, then
// configured default, then derived from the key representation.
func resolveSigningAlgorithm(key Key, defaults HeaderDefaults, o *signOptions) (string, error) {
	alg := o.algorithm
	if alg == "" {
		alg = defaults.Algorithm
	}
	if alg == "" {
		return key.defaultSigningAlgorithm()
	}
	if !key.supportsAlgorithm(alg) {
		return "", fmt.Errorf("%w: %s", ErrAlgorithmKeyMismatch, alg)
	}
	return alg, nil
}

// resolveEncryptionAlgorithms picks the JWE key-management and
// content-encryption algorithms with the standard fallbacks.
func resolveEncryptionAlgorithms(defaults EncryptionDefaults, o *signOptions) (keyAlg, enc string) {
	keyAlg = o.algorithm
	if keyAlg == "" {
		keyAlg = defaults.KeyAlgorithm
	}
	if keyAlg == "" {
		keyAlg = encryptionAlgFallback
	}
	enc = o.contentEncryption
	if enc == "" {
		enc = defaults.ContentEncryption
	}
	if enc == "" {
		enc = contentEncryptionFallback
	}
	return keyAlg, enc
}

// tokenHeader is the untrusted protected header of an incoming token.
// Only the algorithm family split and the kid hint may influence
// behavior; everything else is informational.
type tokenHeader struct {
	Algorithm   string `json:"alg"`
	Type        string `json:"typ"`
	ContentType string `json:"cty"`
	KeyID       string `json:"kid"`
	Encryption  string `json:"enc"`
}

// decodeHeader reads the protected header of a compact token without any
// verification. Structural damage fails here, before key resolution.
func decodeHeader(token string) (*tokenHeader, error) {
	seg, _, ok := strings.Cut(token, ".")
	if !ok || seg == "" {
		return nil, fmt.Errorf("%w: missing header segment", ErrTokenMalformed)
	}
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return nil, fmt.Errorf("%w: header not base64url", ErrTokenMalformed)
	}
	var header tokenHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("%w: header not JSON", ErrTokenMalformed)
	}
	if header.Algorithm == "" {
		return nil, fmt.Errorf("%w: header missing alg", ErrTokenMalformed)
	}
	return &header, nil
}

// segmentCount reports the number of compact-serialization segments: 3
// for JWS, 5 for JWE.
func segmentCount(token string) int {
	if token == "" {
		return 0
	}
	return strings.Count(token, ".") + 1
}
