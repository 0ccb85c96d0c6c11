// Package signet provides a configuration-driven JWT engine for signing,
// verifying, encrypting, and decrypting compact tokens, with key-set
// resolution for multi-key deployments.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build] or [NewEngine].
//
// # Architecture boundaries
//
// signet is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (Claims, Key, TimeValue, MetricsSnapshot, etc.). Audit dispatch lives under internal/
// and is never exported directly; the collaborator packages jwks, denylist, and schema
// plug in through the [KeySetResolver] and [ClaimsValidator] interfaces.
//
// # What this package must NOT do
//
//   - Expose raw key material, resolver internals, or wire-encoding details in its
//     public API.
//   - Distinguish verification failure causes on the public boundary: Verify and
//     Decrypt return [ErrVerification] for every rejected token, and the detailed
//     cause is observable only through metrics and audit events.
//   - Import any sub-package that re-imports signet (no import cycles).
//
// # Performance contract
//
// Verify is the hot path. With a local key and no resolver it must complete without
// I/O; resolver-backed verification is allowed the resolver's own round-trip and
// nothing else. Metrics are lock-free atomics and audit emission never blocks the
// calling goroutine.
package signet
