// Package denylist revokes individual tokens by jti before their natural
// expiry.
//
// [Memory] keeps the list in-process with a periodic sweeper; [Redis]
// shares it across processes with TTL-expired entries. [Validator] wires
// either into a [signet.Engine] through the standard validator hook, so
// a revoked token fails verification like any other rejection.
//
// # What this package must NOT do
//
//   - Inspect anything but the jti claim — revocation is by token id only.
//   - Fail open: a backend error rejects the token under check.
package denylist
