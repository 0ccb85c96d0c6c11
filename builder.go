package signet

import "time"

// Builder defines a public type used by signet APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSigningKey describes the withsigningkey operation and its observable behavior.
//
// WithSigningKey may return an error when input validation, dependency calls, or security checks fail.
// WithSigningKey does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSigningKey(key Key) *Builder {
	b.config.Keys.Signing = key
	return b
}

// WithEncryptionKey describes the withencryptionkey operation and its observable behavior.
//
// WithEncryptionKey may return an error when input validation, dependency calls, or security checks fail.
// WithEncryptionKey does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithEncryptionKey(key Key) *Builder {
	b.config.Keys.Encryption = key
	return b
}

// WithKeyResolver describes the withkeyresolver operation and its observable behavior.
//
// WithKeyResolver may return an error when input validation, dependency calls, or security checks fail.
// WithKeyResolver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithKeyResolver(r KeySetResolver) *Builder {
	b.config.Keys.Resolver = r
	return b
}

// WithAlgorithm describes the withalgorithm operation and its observable behavior.
//
// WithAlgorithm may return an error when input validation, dependency calls, or security checks fail.
// WithAlgorithm does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAlgorithm(alg string) *Builder {
	b.config.Header.Algorithm = alg
	return b
}

// WithIssuer describes the withissuer operation and its observable behavior.
//
// WithIssuer may return an error when input validation, dependency calls, or security checks fail.
// WithIssuer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithIssuer(issuer string) *Builder {
	b.config.Claims.Issuer = issuer
	return b
}

// WithAudience describes the withaudience operation and its observable behavior.
//
// WithAudience may return an error when input validation, dependency calls, or security checks fail.
// WithAudience does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAudience(audience ...string) *Builder {
	b.config.Claims.Audience = audience
	return b
}

// WithTokenLifetime describes the withtokenlifetime operation and its observable behavior.
//
// WithTokenLifetime may return an error when input validation, dependency calls, or security checks fail.
// WithTokenLifetime does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenLifetime(d time.Duration) *Builder {
	b.config.Claims.ExpiresIn = In(d)
	return b
}

// WithLeeway describes the withleeway operation and its observable behavior.
//
// WithLeeway may return an error when input validation, dependency calls, or security checks fail.
// WithLeeway does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLeeway(d time.Duration) *Builder {
	b.config.Validation.Leeway = d
	return b
}

// WithAllowedAlgorithms describes the withallowedalgorithms operation and its observable behavior.
//
// WithAllowedAlgorithms may return an error when input validation, dependency calls, or security checks fail.
// WithAllowedAlgorithms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAllowedAlgorithms(algs ...string) *Builder {
	b.config.Validation.Algorithms = algs
	return b
}

// WithValidator describes the withvalidator operation and its observable behavior.
//
// WithValidator may return an error when input validation, dependency calls, or security checks fail.
// WithValidator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithValidator(v ClaimsValidator) *Builder {
	b.config.Validation.Validators = append(b.config.Validation.Validators, v)
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	engine, err := newEngine(b.config, b.auditSink)
	if err != nil {
		return nil, err
	}

	b.built = true

	return engine, nil
}
