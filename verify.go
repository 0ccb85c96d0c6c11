package signet

import (
	"context"
	"errors"
	"fmt"
)

// verdict is the internal outcome of a verification or decryption
// attempt. The public boundary collapses every failure into
// ErrVerification; telemetry and audit records are the only consumers
// of the detail kept here.
type verdict struct {
	claims    Claims
	algorithm string
	keyID     string
	err       error
}

func (v verdict) ok() bool { return v.err == nil }

// verifyToken runs the signed-token pipeline: structural checks, the
// algorithm allow-list, key candidate resolution, signature and claim
// checks, then registered validators. Candidate keys are tried in
// order; only a signature mismatch moves the loop to the next key.
// Any other failure is final, so an expired or malformed token cannot
// be masked by a later candidate.
func (e *Engine) verifyToken(ctx context.Context, token string, o *verifyOptions) verdict {
	if n := segmentCount(token); n != 3 {
		return verdict{err: fmt.Errorf("%w: expected a signed token, got %d segments", ErrTokenMalformed, n)}
	}
	header, err := decodeHeader(token)
	if err != nil {
		return verdict{err: err}
	}
	v := verdict{algorithm: header.Algorithm, keyID: header.KeyID}

	allowed := e.allowedAlgorithms(o.algorithms)
	if !algorithmInList(header.Algorithm, allowed) {
		v.err = fmt.Errorf("%w: %s", ErrAlgorithmNotAllowed, header.Algorithm)
		return v
	}

	candidates, err := e.verificationCandidates(ctx, header.Algorithm, header.KeyID)
	if err != nil {
		v.err = err
		return v
	}

	var (
		claims  Claims
		sigErr  error
		matched bool
	)
	for _, cand := range candidates {
		parsed, err := e.parseJWS(token, cand.material, o, allowed)
		switch {
		case err == nil:
			claims = parsed
			if cand.keyID != "" {
				v.keyID = cand.keyID
			}
			matched = true
		case errors.Is(err, ErrSignatureInvalid):
			sigErr = err
			continue
		default:
			v.err = err
			return v
		}
		break
	}
	if !matched {
		if sigErr == nil {
			sigErr = ErrSignatureInvalid
		}
		v.err = sigErr
		return v
	}

	if err := e.runValidators(ctx, claims, o); err != nil {
		v.err = err
		return v
	}
	v.claims = claims
	return v
}

// decryptToken runs the encrypted-token pipeline. The declared header
// algorithms must match the configured pair exactly before any key
// material is touched; after decryption the claim set goes through the
// same time-window, expectation and validator gates as a signed token.
func (e *Engine) decryptToken(ctx context.Context, token string, o *verifyOptions) verdict {
	if n := segmentCount(token); n != 5 {
		return verdict{err: fmt.Errorf("%w: expected an encrypted token, got %d segments", ErrTokenMalformed, n)}
	}
	header, err := decodeHeader(token)
	if err != nil {
		return verdict{err: err}
	}
	v := verdict{algorithm: header.Algorithm, keyID: header.KeyID}

	keyAlg, enc := e.encryptionAlgorithms()
	if header.Algorithm != keyAlg {
		v.err = fmt.Errorf("%w: %s", ErrAlgorithmNotAllowed, header.Algorithm)
		return v
	}
	if header.Encryption != enc {
		v.err = fmt.Errorf("%w: %s", ErrAlgorithmNotAllowed, header.Encryption)
		return v
	}

	claims, err := decryptJWE(token, keyAlg, enc, e.encryptionKey())
	if err != nil {
		v.err = err
		return v
	}

	if err := e.checkDecryptedClaims(claims, o); err != nil {
		v.err = err
		return v
	}
	if err := e.runValidators(ctx, claims, o); err != nil {
		v.err = err
		return v
	}
	v.claims = claims
	return v
}

// checkDecryptedClaims mirrors the claim checks the signing provider
// performs on the signed path: time window first, then the configured
// issuer and audience expectations.
func (e *Engine) checkDecryptedClaims(claims Claims, o *verifyOptions) error {
	if err := validateClaims(claims, nowFunc(), o.leeway, e.cfg.Validation.RequireExpiry); err != nil {
		return err
	}
	if o.issuer != "" {
		if iss := claims.String("iss"); iss != o.issuer {
			return fmt.Errorf("%w: unexpected issuer %q", ErrClaimsRejected, iss)
		}
	}
	if o.audience != "" && !matchAudience(claims, o.audience) {
		return fmt.Errorf("%w: audience mismatch", ErrClaimsRejected)
	}
	return nil
}

// runValidators applies the configured and per-call claim validators in
// registration order. A validator may return a taxonomy error directly;
// anything else is wrapped as a claims rejection.
func (e *Engine) runValidators(ctx context.Context, claims Claims, o *verifyOptions) error {
	for _, val := range o.validators {
		if val == nil {
			continue
		}
		if err := val.ValidateClaims(ctx, claims); err != nil {
			if errors.Is(err, ErrTokenDenied) || errors.Is(err, ErrClaimsRejected) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrClaimsRejected, err)
		}
	}
	return nil
}
