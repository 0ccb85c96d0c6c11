// Package schema validates claim sets against CEL expressions.
//
// A [Rule] compiles once at configuration time and evaluates on every
// verification, with the claim set bound as `claims` and the current
// instant as `now`. Rules and [RuleSet] satisfy [signet.ClaimsValidator],
// so they wire into [signet.ValidationConfig.Validators] or per-call
// [signet.WithValidators].
//
// # What this package must NOT do
//
//   - Mutate the claim set under evaluation.
//   - Distinguish "expression false" from "expression errored" for the
//     caller — both reject, and the detail stays in the wrapped error.
package schema
