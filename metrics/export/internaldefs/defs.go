package internaldefs

import (
	signet "github.com/signetauth/signet"
)

// CounterDef defines a public type used by signet APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   signet.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by signet APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   signet.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the token engine.
var CounterDefs = []CounterDef{
	{ID: signet.MetricSignSuccess, Name: "signet_sign_success_total", Help: "Successful sign operations."},
	{ID: signet.MetricSignFailure, Name: "signet_sign_failure_total", Help: "Failed sign operations."},
	{ID: signet.MetricVerifySuccess, Name: "signet_verify_success_total", Help: "Successfully verified tokens."},
	{ID: signet.MetricVerifyFailure, Name: "signet_verify_failure_total", Help: "Rejected tokens on the verify path."},
	{ID: signet.MetricEncryptSuccess, Name: "signet_encrypt_success_total", Help: "Successful encrypt operations."},
	{ID: signet.MetricEncryptFailure, Name: "signet_encrypt_failure_total", Help: "Failed encrypt operations."},
	{ID: signet.MetricDecryptSuccess, Name: "signet_decrypt_success_total", Help: "Successfully decrypted tokens."},
	{ID: signet.MetricDecryptFailure, Name: "signet_decrypt_failure_total", Help: "Rejected tokens on the decrypt path."},
	{ID: signet.MetricTokenMalformed, Name: "signet_token_malformed_total", Help: "Tokens rejected as structurally malformed."},
	{ID: signet.MetricTokenExpired, Name: "signet_token_expired_total", Help: "Tokens rejected as expired."},
	{ID: signet.MetricTokenNotYetValid, Name: "signet_token_not_yet_valid_total", Help: "Tokens rejected before their nbf instant."},
	{ID: signet.MetricSignatureInvalid, Name: "signet_signature_invalid_total", Help: "Tokens whose signature matched no candidate key."},
	{ID: signet.MetricDecryptionFailed, Name: "signet_decryption_failed_total", Help: "Encrypted tokens that failed key unwrap or integrity checks."},
	{ID: signet.MetricNoMatchingKey, Name: "signet_no_matching_key_total", Help: "Tokens for which key resolution produced no candidates."},
	{ID: signet.MetricAlgorithmRejected, Name: "signet_algorithm_rejected_total", Help: "Tokens rejected by the algorithm allow-list."},
	{ID: signet.MetricClaimsRejected, Name: "signet_claims_rejected_total", Help: "Tokens rejected by claim expectations or validators."},
	{ID: signet.MetricTokenDenied, Name: "signet_token_denied_total", Help: "Tokens rejected by a denylist validator."},
}

// HistogramDefs is an exported constant or variable used by the token engine.
var HistogramDefs = []HistogramDef{
	{ID: signet.MetricSignLatency, Name: "signet_sign_latency_seconds", Help: "Sign latency histogram."},
	{ID: signet.MetricVerifyLatency, Name: "signet_verify_latency_seconds", Help: "Verify latency histogram."},
	{ID: signet.MetricEncryptLatency, Name: "signet_encrypt_latency_seconds", Help: "Encrypt latency histogram."},
	{ID: signet.MetricDecryptLatency, Name: "signet_decrypt_latency_seconds", Help: "Decrypt latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the token engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the token engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
