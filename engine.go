package signet

import (
	"context"
	"time"
)

// nowFunc is the clock used for claim construction and validation.
// Tests replace it to pin token lifetimes.
var nowFunc = time.Now

// Engine defines a public type used by signet APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	cfg     Config
	metrics *Metrics
	audit   *auditDispatcher
}

// NewEngine constructs an Engine from cfg without an audit sink. The
// configuration is cloned, normalized and validated; the returned
// engine never observes later mutations of cfg. New offers the same
// construction through a chaining builder.
func NewEngine(cfg Config) (*Engine, error) {
	return newEngine(cfg, nil)
}

func newEngine(cfg Config, sink AuditSink) (*Engine, error) {
	cfg = cloneConfig(cfg)
	normalizeConfig(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		metrics: NewMetrics(cfg.Metrics),
		audit:   newAuditDispatcher(cfg.Audit, sink),
	}, nil
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
SIGNED TOKENS
====================================
*/

// Sign produces a compact signed token. The given claims merge over the
// configured defaults; per-call options override both. The signing
// algorithm comes from the options, the header defaults, or the key
// itself, in that order, and must match the configured key material.
//
// A configuration without local signing material fails with
// ErrSigningUnavailable: resolver-served keys verify, they never sign.
func (e *Engine) Sign(claims Claims, opts ...SignOption) (string, error) {
	if e == nil {
		return "", ErrEngineClosed
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer e.metrics.Observe(MetricSignLatency, time.Since(start))
	}

	o := newSignOptions(opts)
	key := e.cfg.Keys.Signing
	if !key.canSign() {
		e.metricInc(MetricSignFailure)
		e.emitAudit(context.Background(), auditEventSignFailure, false, "", "", "", "", ErrSigningUnavailable, nil)
		return "", ErrSigningUnavailable
	}

	alg, err := resolveSigningAlgorithm(key, e.cfg.Header, o)
	if err != nil {
		e.metricInc(MetricSignFailure)
		e.emitAudit(context.Background(), auditEventSignFailure, false, "", "", "", "", err, nil)
		return "", err
	}

	header := buildHeader(e.cfg.Header, o)
	merged := buildClaims(e.cfg.Claims, o, claims, nowFunc())

	token, err := signJWS(alg, header, merged, key)
	if err != nil {
		e.metricInc(MetricSignFailure)
		e.emitAudit(context.Background(), auditEventSignFailure, false, claimString(merged, "sub"), claimString(merged, "jti"), headerKeyID(header), alg, err, nil)
		return "", err
	}

	e.metricInc(MetricSignSuccess)
	e.emitAudit(context.Background(), auditEventSignSuccess, true, claimString(merged, "sub"), claimString(merged, "jti"), headerKeyID(header), alg, nil, nil)
	return token, nil
}

// Verify checks a signed token and returns its claims. Every failure
// surfaces as ErrVerification: callers cannot tell a bad signature from
// an expired token, a denied one, or garbage input. The metrics
// counters and the audit stream keep the detailed cause.
func (e *Engine) Verify(ctx context.Context, token string, opts ...VerifyOption) (Claims, error) {
	if e == nil {
		return nil, ErrEngineClosed
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	o := e.newVerifyOptions(opts)
	v := e.verifyToken(ctx, token, o)
	e.recordOutcome(ctx, verifyOutcome, v)
	if !v.ok() {
		return nil, ErrVerification
	}
	return v.claims, nil
}

/*
====================================
ENCRYPTED TOKENS
====================================
*/

// Encrypt seals the merged claim set into a compact encrypted token
// using the configured key-management and content-encryption pair.
// Claim and header assembly follow the same rules as Sign.
func (e *Engine) Encrypt(claims Claims, opts ...SignOption) (string, error) {
	if e == nil {
		return "", ErrEngineClosed
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer e.metrics.Observe(MetricEncryptLatency, time.Since(start))
	}

	o := newSignOptions(opts)
	key := e.encryptionKey()
	if key.IsZero() {
		e.metricInc(MetricEncryptFailure)
		e.emitAudit(context.Background(), auditEventEncryptFailure, false, "", "", "", "", ErrEncryptionUnavailable, nil)
		return "", ErrEncryptionUnavailable
	}

	keyAlg, enc := resolveEncryptionAlgorithms(e.cfg.Encryption, o)
	header := buildHeader(e.cfg.Header, o)
	if _, ok := o.headers["cty"]; !ok {
		cty := e.cfg.Encryption.ContentType
		if cty == "" {
			cty = encryptionCtyFallback
		}
		header["cty"] = cty
	}
	merged := buildClaims(e.cfg.Claims, o, claims, nowFunc())

	token, err := encryptJWE(keyAlg, enc, header, merged, key)
	if err != nil {
		e.metricInc(MetricEncryptFailure)
		e.emitAudit(context.Background(), auditEventEncryptFailure, false, claimString(merged, "sub"), claimString(merged, "jti"), headerKeyID(header), keyAlg, err, nil)
		return "", err
	}

	e.metricInc(MetricEncryptSuccess)
	e.emitAudit(context.Background(), auditEventEncryptSuccess, true, claimString(merged, "sub"), claimString(merged, "jti"), headerKeyID(header), keyAlg, nil, nil)
	return token, nil
}

// Decrypt opens an encrypted token and returns its claims. Failures
// collapse to ErrVerification exactly like Verify.
func (e *Engine) Decrypt(ctx context.Context, token string, opts ...VerifyOption) (Claims, error) {
	if e == nil {
		return nil, ErrEngineClosed
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer e.metrics.Observe(MetricDecryptLatency, time.Since(start))
	}

	o := e.newVerifyOptions(opts)
	v := e.decryptToken(ctx, token, o)
	e.recordOutcome(ctx, decryptOutcome, v)
	if !v.ok() {
		return nil, ErrVerification
	}
	return v.claims, nil
}

// encryptionKey returns the key material for the encrypted-token
// operations: the dedicated encryption key when configured, otherwise
// the signing key.
func (e *Engine) encryptionKey() Key {
	if !e.cfg.Keys.Encryption.IsZero() {
		return e.cfg.Keys.Encryption
	}
	return e.cfg.Keys.Signing
}

// encryptionAlgorithms returns the configured pair with fallbacks, the
// only pair a decryptable token may declare.
func (e *Engine) encryptionAlgorithms() (keyAlg, enc string) {
	return resolveEncryptionAlgorithms(e.cfg.Encryption, &signOptions{})
}

/*
====================================
OUTCOME RECORDING
====================================
*/

// tokenOutcome binds one read-side operation to its metric and audit
// identifiers.
type tokenOutcome struct {
	success      MetricID
	failure      MetricID
	successEvent string
	failureEvent string
}

var (
	verifyOutcome  = tokenOutcome{MetricVerifySuccess, MetricVerifyFailure, auditEventVerifySuccess, auditEventVerifyFailure}
	decryptOutcome = tokenOutcome{MetricDecryptSuccess, MetricDecryptFailure, auditEventDecryptSuccess, auditEventDecryptFailure}
)

func (e *Engine) recordOutcome(ctx context.Context, op tokenOutcome, v verdict) {
	if v.ok() {
		e.metricInc(op.success)
		e.emitAudit(ctx, op.successEvent, true, claimString(v.claims, "sub"), claimString(v.claims, "jti"), v.keyID, v.algorithm, nil, nil)
		return
	}
	e.metricInc(op.failure)
	if id, ok := failureClassMetric(v.err); ok {
		e.metricInc(id)
	}
	e.emitAudit(ctx, op.failureEvent, false, "", "", v.keyID, v.algorithm, v.err, nil)
}

func claimString(claims Claims, name string) string {
	return claims.String(name)
}

func headerKeyID(header map[string]any) string {
	kid, _ := header["kid"].(string)
	return kid
}
