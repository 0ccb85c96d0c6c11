package signet

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// signJWS produces a compact JWS over normalized claims. The header map
// is applied on top of the provider's own members, except alg, which
// always reflects the method actually signing.
func signJWS(alg string, header map[string]any, claims Claims, key Key) (string, error) {
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return "", fmt.Errorf("%w: %s", ErrAlgorithmUnsupported, alg)
	}
	token := jwt.NewWithClaims(method, jwt.MapClaims(claims))
	for name, value := range header {
		if name == "alg" {
			continue
		}
		token.Header[name] = value
	}
	material, err := key.signingMaterial()
	if err != nil {
		return "", err
	}
	signed, err := token.SignedString(material)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return signed, nil
}

// parseJWS runs one verification attempt against a single key candidate.
// The allow-list is enforced again here even though the orchestrator
// checks it first; the provider never picks a method the configuration
// did not admit.
func (e *Engine) parseJWS(token string, material any, o *verifyOptions, allowed []string) (Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(allowed),
		jwt.WithLeeway(o.leeway),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(nowFunc),
	}
	if e.cfg.Validation.RequireExpiry {
		parserOpts = append(parserOpts, jwt.WithExpirationRequired())
	}
	if o.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(o.issuer))
	}
	if o.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(o.audience))
	}

	parsed, err := jwt.NewParser(parserOpts...).Parse(token, func(*jwt.Token) (any, error) {
		return material, nil
	})
	if err != nil {
		return nil, classifyJWSError(err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	return Claims(claims), nil
}

// classifyJWSError translates provider failures into the internal
// taxonomy. Signature mismatch is the only class the candidate loop may
// continue past, so the mapping here decides iteration behavior.
func classifyJWSError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidSubject),
		errors.Is(err, jwt.ErrTokenInvalidId),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ErrClaimsRejected
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrNoMatchingKey
	default:
		return err
	}
}
