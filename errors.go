package signet

import "errors"

var (
	// ErrNoKeyConfigured is an exported constant or variable used by the token engine.
	ErrNoKeyConfigured = errors.New("no signing key or key set resolver configured")
	// ErrInvalidKey is an exported constant or variable used by the token engine.
	ErrInvalidKey = errors.New("invalid key material")
	// ErrInvalidConfig is an exported constant or variable used by the token engine.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrBuilderUsed is an exported constant or variable used by the token engine.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrEngineClosed is an exported constant or variable used by the token engine.
	ErrEngineClosed = errors.New("engine closed")
	// ErrSigningUnavailable is an exported constant or variable used by the token engine.
	ErrSigningUnavailable = errors.New("signing unavailable: no local key material configured")
	// ErrEncryptionUnavailable is an exported constant or variable used by the token engine.
	ErrEncryptionUnavailable = errors.New("encryption unavailable: no local key material configured")
	// ErrAlgorithmUnsupported is an exported constant or variable used by the token engine.
	ErrAlgorithmUnsupported = errors.New("unsupported algorithm")
	// ErrAlgorithmKeyMismatch is an exported constant or variable used by the token engine.
	ErrAlgorithmKeyMismatch = errors.New("algorithm incompatible with configured key material")

	// ErrVerification is the single failure value returned by Verify and
	// Decrypt. Every rejection of an untrusted token collapses to this
	// sentinel; callers cannot distinguish a bad signature from an expired
	// claim or a schema rejection through the public API.
	ErrVerification = errors.New("token verification failed")

	// ErrTokenMalformed is an exported constant or variable used by the token engine.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is an exported constant or variable used by the token engine.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is an exported constant or variable used by the token engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotYetValid is an exported constant or variable used by the token engine.
	ErrTokenNotYetValid = errors.New("token not yet valid")
	// ErrDecryptionFailed is an exported constant or variable used by the token engine.
	ErrDecryptionFailed = errors.New("token decryption failed")
	// ErrNoMatchingKey is an exported constant or variable used by the token engine.
	ErrNoMatchingKey = errors.New("no verification key matches the token header")
	// ErrAlgorithmNotAllowed is an exported constant or variable used by the token engine.
	ErrAlgorithmNotAllowed = errors.New("token algorithm not in the configured allow list")
	// ErrClaimsRejected is an exported constant or variable used by the token engine.
	ErrClaimsRejected = errors.New("token claims rejected")
	// ErrTokenDenied is an exported constant or variable used by the token engine.
	ErrTokenDenied = errors.New("token denied by revocation list")
)
