package signet

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// TokenInfo defines a public type used by signet APIs.
//
// TokenInfo instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// Nothing in a TokenInfo is authenticated. Routing decisions such as
// picking a tenant-specific engine may read it; trust decisions must go
// through Verify or Decrypt.
type TokenInfo struct {
	// Header is the decoded protected header.
	Header map[string]any

	// Claims is the decoded payload. It is nil for encrypted tokens,
	// whose payload is ciphertext until Decrypt runs.
	Claims Claims

	// Encrypted reports whether the token uses the five-segment
	// encrypted form rather than the three-segment signed form.
	Encrypted bool
}

// Peek describes the peek operation and its observable behavior.
//
// Peek may return an error when input validation, dependency calls, or security checks fail.
// Peek does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Peek(token string) (*TokenInfo, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 && len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 3 or 5 segments, got %d", ErrTokenMalformed, len(parts))
	}

	rawHeader, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header not base64url", ErrTokenMalformed)
	}
	var header map[string]any
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return nil, fmt.Errorf("%w: header not JSON", ErrTokenMalformed)
	}

	info := &TokenInfo{
		Header:    header,
		Encrypted: len(parts) == 5,
	}
	if info.Encrypted {
		return info, nil
	}

	rawClaims, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload not base64url", ErrTokenMalformed)
	}
	var claims Claims
	if err := json.Unmarshal(rawClaims, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not a claim set", ErrTokenMalformed)
	}
	info.Claims = claims

	return info, nil
}

// Algorithm returns the alg header member, or "" when absent.
func (i *TokenInfo) Algorithm() string {
	return i.headerString("alg")
}

// KeyID returns the kid header member, or "" when absent.
func (i *TokenInfo) KeyID() string {
	return i.headerString("kid")
}

func (i *TokenInfo) headerString(name string) string {
	if i == nil {
		return ""
	}
	if v, ok := i.Header[name].(string); ok {
		return v
	}
	return ""
}
