package signet

import (
	"fmt"
	"time"
)

// Config defines a public type used by signet APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Keys       KeysConfig
	Claims     ClaimDefaults
	Header     HeaderDefaults
	Encryption EncryptionDefaults
	Validation ValidationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
KEY CONFIG
====================================
*/

// KeysConfig defines a public type used by signet APIs.
//
// KeysConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type KeysConfig struct {
	// Signing holds the local key material used for signing and, when no
	// resolver serves the token's algorithm family, for verification.
	Signing Key
	// Encryption optionally overrides Signing for the encrypted-token
	// operations. When zero, Signing is used for those too.
	Encryption Key
	// Resolver supplies remote verification keys for asymmetric
	// algorithms. Symmetric verification never consults it.
	Resolver KeySetResolver
}

/*
====================================
CLAIM DEFAULTS
====================================
*/

// ClaimDefaults defines a public type used by signet APIs.
//
// ClaimDefaults instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClaimDefaults struct {
	Issuer      string
	Subject     string
	Audience    []string
	ExpiresIn   TimeValue
	NotBefore   TimeValue
	IssuedAt    TimeValue
	GenerateJTI bool
	Custom      map[string]any
}

/*
====================================
HEADER DEFAULTS
====================================
*/

// HeaderDefaults defines a public type used by signet APIs.
//
// HeaderDefaults instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HeaderDefaults struct {
	Algorithm   string
	Type        string
	ContentType string
	KeyID       string
	Critical    []string
	Extra       map[string]any
}

/*
====================================
ENCRYPTION DEFAULTS
====================================
*/

// EncryptionDefaults defines a public type used by signet APIs.
//
// EncryptionDefaults instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EncryptionDefaults struct {
	KeyAlgorithm      string // "RSA-OAEP-256" when empty
	ContentEncryption string // "A256GCM" when empty
	ContentType       string // "JWT" when empty
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// ValidationConfig defines a public type used by signet APIs.
//
// ValidationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ValidationConfig struct {
	Leeway           time.Duration
	Algorithms       []string
	ExpectedIssuer   string
	ExpectedAudience string
	RequireExpiry    bool
	Validators       []ClaimsValidator
}

// AuditConfig defines a public type used by signet APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by signet APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. It carries no key
// material, so Validate rejects it until a key or resolver is added.
func DefaultConfig() Config {
	return Config{
		Claims: ClaimDefaults{
			IssuedAt:    Now(),
			GenerateJTI: false,
		},
		Header: HeaderDefaults{
			Type: "JWT",
		},
		Encryption: EncryptionDefaults{
			KeyAlgorithm:      "RSA-OAEP-256",
			ContentEncryption: "A256GCM",
			ContentType:       "JWT",
		},
		Validation: ValidationConfig{
			Leeway:        0,
			RequireExpiry: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Claims.Audience = cloneStrings(cfg.Claims.Audience)
	out.Claims.Custom = cloneValueMap(cfg.Claims.Custom)
	out.Header.Critical = cloneStrings(cfg.Header.Critical)
	out.Header.Extra = cloneValueMap(cfg.Header.Extra)
	out.Validation.Algorithms = cloneStrings(cfg.Validation.Algorithms)
	if len(cfg.Validation.Validators) > 0 {
		out.Validation.Validators = append([]ClaimsValidator(nil), cfg.Validation.Validators...)
	}
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneValueMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// normalizeConfig fills claim defaults that carry an implied value when
// left unset. Issued-at defaults to the signing time; keeping it out of
// tokens requires an explicit Absent.
func normalizeConfig(cfg *Config) {
	if cfg.Claims.IssuedAt.IsZero() {
		cfg.Claims.IssuedAt = Now()
	}
}

/*
====================================
VALIDATION
====================================
*/

var registeredClaimNames = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"}

func knownSigningAlgorithm(alg string) bool {
	switch alg {
	case "HS256", "HS384", "HS512",
		"RS256", "RS384", "RS512",
		"PS256", "PS384", "PS512",
		"ES256", "ES384", "ES512",
		"EdDSA":
		return true
	}
	return false
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Keys
	if c.Keys.Signing.IsZero() && c.Keys.Encryption.IsZero() && c.Keys.Resolver == nil {
		return ErrNoKeyConfigured
	}

	// Claims
	for _, name := range registeredClaimNames {
		if _, ok := c.Claims.Custom[name]; ok {
			return fmt.Errorf("%w: Claims Custom must not contain %q, use the dedicated field", ErrInvalidConfig, name)
		}
	}

	// Header
	if c.Header.Algorithm != "" {
		if !knownSigningAlgorithm(c.Header.Algorithm) {
			return fmt.Errorf("%w: unknown Header Algorithm %q", ErrInvalidConfig, c.Header.Algorithm)
		}
		if !c.Keys.Signing.IsZero() && !c.Keys.Signing.supportsAlgorithm(c.Header.Algorithm) {
			return fmt.Errorf("%w: Header Algorithm %q does not match the signing key", ErrInvalidConfig, c.Header.Algorithm)
		}
	}
	for _, name := range []string{"alg", "enc"} {
		if _, ok := c.Header.Extra[name]; ok {
			return fmt.Errorf("%w: Header Extra must not override %q", ErrInvalidConfig, name)
		}
	}

	// Encryption
	if c.Encryption.KeyAlgorithm != "" {
		if _, err := parseKeyAlgorithm(c.Encryption.KeyAlgorithm); err != nil {
			return fmt.Errorf("%w: Encryption KeyAlgorithm %q", ErrInvalidConfig, c.Encryption.KeyAlgorithm)
		}
	}
	if c.Encryption.ContentEncryption != "" {
		if _, err := parseContentEncryption(c.Encryption.ContentEncryption); err != nil {
			return fmt.Errorf("%w: Encryption ContentEncryption %q", ErrInvalidConfig, c.Encryption.ContentEncryption)
		}
	}

	// Validation
	if c.Validation.Leeway < 0 {
		return fmt.Errorf("%w: Validation Leeway must be >= 0", ErrInvalidConfig)
	}
	for _, alg := range c.Validation.Algorithms {
		if !knownSigningAlgorithm(alg) {
			return fmt.Errorf("%w: unknown algorithm %q in Validation Algorithms", ErrInvalidConfig, alg)
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0 when audit is enabled", ErrInvalidConfig)
	}

	return nil
}
