package denylist

import (
	"context"
	"fmt"
	"time"

	signet "github.com/signetauth/signet"
)

// Store is a revocation backend keyed by token id. Deny marks a jti
// rejected until the given instant, after which backends may forget it;
// Allow removes the mark early.
type Store interface {
	Deny(ctx context.Context, tokenID string, until time.Time) error
	Denied(ctx context.Context, tokenID string) (bool, error)
	Allow(ctx context.Context, tokenID string) error
}

// Validator adapts a Store into a [signet.ClaimsValidator] so revocation
// runs inside the engine's verification pipeline. Tokens without a jti
// pass: they were issued without revocation support and cannot be on the
// list. Backend failures reject the token; an unreachable store must not
// let revoked tokens through.
func Validator(store Store) signet.ClaimsValidator {
	return signet.ClaimsValidatorFunc(func(ctx context.Context, claims signet.Claims) error {
		tokenID := claims.String("jti")
		if tokenID == "" {
			return nil
		}

		denied, err := store.Denied(ctx, tokenID)
		if err != nil {
			return fmt.Errorf("denylist check: %w", err)
		}
		if denied {
			return signet.ErrTokenDenied
		}
		return nil
	})
}
