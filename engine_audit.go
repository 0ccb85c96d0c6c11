package signet

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignSuccess    = "token_sign_success"
	auditEventSignFailure    = "token_sign_failure"
	auditEventVerifySuccess  = "token_verify_success"
	auditEventVerifyFailure  = "token_verify_failure"
	auditEventEncryptSuccess = "token_encrypt_success"
	auditEventEncryptFailure = "token_encrypt_failure"
	auditEventDecryptSuccess = "token_decrypt_success"
	auditEventDecryptFailure = "token_decrypt_failure"
)

// AuditErrorCode defines a public type used by signet APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrMalformed             AuditErrorCode = "token_malformed"
	auditErrExpired               AuditErrorCode = "token_expired"
	auditErrNotYetValid           AuditErrorCode = "token_not_yet_valid"
	auditErrSignatureInvalid      AuditErrorCode = "signature_invalid"
	auditErrDecryptionFailed      AuditErrorCode = "decryption_failed"
	auditErrNoMatchingKey         AuditErrorCode = "no_matching_key"
	auditErrAlgorithmNotAllowed   AuditErrorCode = "algorithm_not_allowed"
	auditErrAlgorithmUnsupported  AuditErrorCode = "algorithm_unsupported"
	auditErrAlgorithmKeyMismatch  AuditErrorCode = "algorithm_key_mismatch"
	auditErrClaimsRejected        AuditErrorCode = "claims_rejected"
	auditErrDenied                AuditErrorCode = "token_denied"
	auditErrSigningUnavailable    AuditErrorCode = "signing_unavailable"
	auditErrEncryptionUnavailable AuditErrorCode = "encryption_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	tokenID string,
	keyID string,
	algorithm string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Subject:   subject,
		TokenID:   tokenID,
		KeyID:     keyID,
		Algorithm: algorithm,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTokenMalformed):
		return auditErrMalformed
	case errors.Is(err, ErrTokenExpired):
		return auditErrExpired
	case errors.Is(err, ErrTokenNotYetValid):
		return auditErrNotYetValid
	case errors.Is(err, ErrSignatureInvalid):
		return auditErrSignatureInvalid
	case errors.Is(err, ErrDecryptionFailed):
		return auditErrDecryptionFailed
	case errors.Is(err, ErrNoMatchingKey):
		return auditErrNoMatchingKey
	case errors.Is(err, ErrAlgorithmNotAllowed):
		return auditErrAlgorithmNotAllowed
	case errors.Is(err, ErrAlgorithmUnsupported):
		return auditErrAlgorithmUnsupported
	case errors.Is(err, ErrAlgorithmKeyMismatch):
		return auditErrAlgorithmKeyMismatch
	case errors.Is(err, ErrTokenDenied):
		return auditErrDenied
	case errors.Is(err, ErrClaimsRejected):
		return auditErrClaimsRejected
	case errors.Is(err, ErrSigningUnavailable):
		return auditErrSigningUnavailable
	case errors.Is(err, ErrEncryptionUnavailable):
		return auditErrEncryptionUnavailable
	default:
		return auditErrInternal
	}
}
