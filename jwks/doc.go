// Package jwks resolves verification keys from JSON Web Key Sets.
//
// [Cache] fetches a remote JWKS endpoint with TTL-based refresh and optional
// background auto-refresh; [Local] serves a fixed set with atomic hot
// replacement. Both satisfy [signet.KeySetResolver], so they plug into
// [signet.KeysConfig.Resolver] directly.
//
// # What this package must NOT do
//
//   - Serve symmetric or private key material to the engine — only public
//     signature keys leave a set.
//   - Retry failed fetches on the verification path; staleness falls back
//     to the cached set and a cold cache surfaces the fetch error.
package jwks
