package signet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Claims is an open claims set. Standard claim names carry their RFC 7519
// types once normalized; custom claims pass through opaquely.
type Claims map[string]any

// Has reports whether the claim exists, regardless of value.
func (c Claims) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// String returns the named claim when it is a string, else "".
func (c Claims) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Time returns a numeric time claim as a time.Time. The second return is
// false when the claim is missing or not numeric.
func (c Claims) Time(name string) (time.Time, bool) {
	switch v := c[name].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	case json.Number:
		if sec, err := v.Int64(); err == nil {
			return time.Unix(sec, 0), true
		}
	}
	return time.Time{}, false
}

// ClaimsValidator is the post-verification hook: schema checks, revocation
// lists, and custom policy all plug in here. A non-nil error rejects the
// token; the rejection is indistinguishable from a signature failure at
// the public boundary.
type ClaimsValidator interface {
	ValidateClaims(ctx context.Context, claims Claims) error
}

// ClaimsValidatorFunc adapts a function to the ClaimsValidator interface.
type ClaimsValidatorFunc func(ctx context.Context, claims Claims) error

// ValidateClaims completes the ClaimsValidator interface.
func (fn ClaimsValidatorFunc) ValidateClaims(ctx context.Context, claims Claims) error {
	return fn(ctx, claims)
}

// buildClaims assembles the final claims set with the documented
// precedence: per-call option over configured default over fallback.
// Presence is decided by key existence, never truthiness: an explicit
// empty or Absent override suppresses the claim its default would have
// emitted. The raw claim maps merge last and may overwrite computed
// standard claims.
func buildClaims(defaults ClaimDefaults, o *signOptions, payload Claims, now time.Time) Claims {
	out := Claims{}

	setStringClaim(out, "iss", o.issuer, defaults.Issuer)
	setStringClaim(out, "sub", o.subject, defaults.Subject)
	setAudienceClaim(out, o.audience, defaults.Audience)

	if t, ok := o.expiresAt.or(defaults.ExpiresIn).at(now); ok {
		out["exp"] = t.Unix()
	}
	if t, ok := o.notBefore.or(defaults.NotBefore).at(now); ok {
		out["nbf"] = t.Unix()
	}
	if t, ok := o.issuedAt.or(defaults.IssuedAt).at(now); ok {
		out["iat"] = t.Unix()
	}

	switch {
	case o.tokenID != nil:
		if *o.tokenID != "" {
			out["jti"] = *o.tokenID
		}
	case defaults.GenerateJTI:
		out["jti"] = uuid.NewString()
	}

	for name, value := range defaults.Custom {
		out[name] = value
	}
	for name, value := range payload {
		applyRawClaim(out, name, value, now)
	}
	for name, value := range o.claims {
		applyRawClaim(out, name, value, now)
	}
	return out
}

// applyRawClaim merges one caller-supplied claim. A nil value removes
// the claim. On the time claims a boolean false removes the claim and a
// boolean true stamps the signing time, matching the configured
// include-at-signing toggle.
func applyRawClaim(out Claims, name string, value any, now time.Time) {
	switch name {
	case "exp", "nbf", "iat":
		switch v := value.(type) {
		case nil:
			delete(out, name)
			return
		case bool:
			if v {
				out[name] = now.Unix()
			} else {
				delete(out, name)
			}
			return
		}
	default:
		if value == nil {
			delete(out, name)
			return
		}
	}
	out[name] = value
}

func setStringClaim(out Claims, name string, override *string, def string) {
	if override != nil {
		if *override != "" {
			out[name] = *override
		}
		return
	}
	if def != "" {
		out[name] = def
	}
}

// setAudienceClaim emits a bare string for a single audience and a list
// for several, matching common JWT producer behavior.
func setAudienceClaim(out Claims, override *[]string, def []string) {
	aud := def
	if override != nil {
		aud = *override
	}
	switch len(aud) {
	case 0:
	case 1:
		if aud[0] != "" {
			out["aud"] = aud[0]
		}
	default:
		out["aud"] = append([]string(nil), aud...)
	}
}

// validateClaims applies the time checks the JWS provider performs, for
// token paths that bypass it (decrypted JWE payloads): expiry, not-before,
// and issued-in-the-future, all with the configured leeway.
func validateClaims(claims Claims, now time.Time, leeway time.Duration, requireExpiry bool) error {
	exp, hasExp := claims.Time("exp")
	if hasExp && now.After(exp.Add(leeway)) {
		return ErrTokenExpired
	}
	if !hasExp && requireExpiry {
		return ErrClaimsRejected
	}
	if nbf, ok := claims.Time("nbf"); ok && now.Add(leeway).Before(nbf) {
		return ErrTokenNotYetValid
	}
	if iat, ok := claims.Time("iat"); ok && now.Add(leeway).Before(iat) {
		return ErrTokenNotYetValid
	}
	return nil
}

// matchAudience reports whether the aud claim, string or list form,
// contains the expected audience.
func matchAudience(claims Claims, expected string) bool {
	switch aud := claims["aud"].(type) {
	case string:
		return aud == expected
	case []string:
		for _, a := range aud {
			if a == expected {
				return true
			}
		}
	case []any:
		for _, v := range aud {
			if a, ok := v.(string); ok && a == expected {
				return true
			}
		}
	}
	return false
}
