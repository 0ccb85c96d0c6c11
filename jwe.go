package signet

import (
	"encoding/json"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// parseKeyAlgorithm maps a configured key-management algorithm name onto
// the provider constant. Unknown names fail loudly at call time rather
// than being passed through to the crypto layer.
func parseKeyAlgorithm(alg string) (jose.KeyAlgorithm, error) {
	switch alg {
	case "RSA-OAEP":
		return jose.RSA_OAEP, nil
	case "RSA-OAEP-256":
		return jose.RSA_OAEP_256, nil
	case "ECDH-ES":
		return jose.ECDH_ES, nil
	case "ECDH-ES+A128KW":
		return jose.ECDH_ES_A128KW, nil
	case "ECDH-ES+A192KW":
		return jose.ECDH_ES_A192KW, nil
	case "ECDH-ES+A256KW":
		return jose.ECDH_ES_A256KW, nil
	case "A128KW":
		return jose.A128KW, nil
	case "A192KW":
		return jose.A192KW, nil
	case "A256KW":
		return jose.A256KW, nil
	case "A128GCMKW":
		return jose.A128GCMKW, nil
	case "A192GCMKW":
		return jose.A192GCMKW, nil
	case "A256GCMKW":
		return jose.A256GCMKW, nil
	case "dir":
		return jose.DIRECT, nil
	default:
		return "", fmt.Errorf("%w: key algorithm %q", ErrAlgorithmUnsupported, alg)
	}
}

// parseContentEncryption maps a configured content-encryption name onto
// the provider constant.
func parseContentEncryption(enc string) (jose.ContentEncryption, error) {
	switch enc {
	case "A128GCM":
		return jose.A128GCM, nil
	case "A192GCM":
		return jose.A192GCM, nil
	case "A256GCM":
		return jose.A256GCM, nil
	case "A128CBC-HS256":
		return jose.A128CBC_HS256, nil
	case "A192CBC-HS384":
		return jose.A192CBC_HS384, nil
	case "A256CBC-HS512":
		return jose.A256CBC_HS512, nil
	default:
		return "", fmt.Errorf("%w: content encryption %q", ErrAlgorithmUnsupported, enc)
	}
}

// encryptJWE seals the claim set into a compact five-segment token.
// The header map carries the already-merged protected header values;
// typ, cty and kid are lifted into the provider's own option slots and
// everything else rides along as an extra header.
func encryptJWE(keyAlg, enc string, header map[string]any, claims Claims, key Key) (string, error) {
	ka, err := parseKeyAlgorithm(keyAlg)
	if err != nil {
		return "", err
	}
	ce, err := parseContentEncryption(enc)
	if err != nil {
		return "", err
	}
	material, err := key.encryptionRecipient()
	if err != nil {
		return "", err
	}

	recipient := jose.Recipient{Algorithm: ka, Key: material}
	if kid, ok := header["kid"].(string); ok && kid != "" {
		recipient.KeyID = kid
	}

	opts := &jose.EncrypterOptions{Compression: jose.NONE}
	if typ, ok := header["typ"].(string); ok && typ != "" {
		opts.WithType(jose.ContentType(typ))
	}
	if cty, ok := header["cty"].(string); ok && cty != "" {
		opts.WithContentType(jose.ContentType(cty))
	}
	for name, value := range header {
		switch name {
		case "typ", "cty", "kid", "alg", "enc":
			continue
		}
		opts.WithHeader(jose.HeaderKey(name), value)
	}

	encrypter, err := jose.NewEncrypter(ce, recipient, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	object, err := encrypter.Encrypt(payload)
	if err != nil {
		return "", fmt.Errorf("encrypt claims: %w", err)
	}
	return object.CompactSerialize()
}

// decryptJWE opens a compact token and returns the embedded claim set.
// Parsing is constrained to the configured algorithm pair, so a token
// declaring anything else is rejected before any key material is used.
func decryptJWE(token string, keyAlg, enc string, key Key) (Claims, error) {
	ka, err := parseKeyAlgorithm(keyAlg)
	if err != nil {
		return nil, err
	}
	ce, err := parseContentEncryption(enc)
	if err != nil {
		return nil, err
	}
	material, err := key.decryptionMaterial()
	if err != nil {
		return nil, err
	}

	object, err := jose.ParseEncrypted(token, []jose.KeyAlgorithm{ka}, []jose.ContentEncryption{ce})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	plaintext, err := object.Decrypt(material)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	var claims Claims
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not a claim set", ErrTokenMalformed)
	}
	return claims, nil
}
