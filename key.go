package signet

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// keyKind tags the representation of local key material. The tag is fixed
// at configuration time; call paths never infer it from the shape of the
// material or from token contents.
type keyKind uint8

const (
	keyNone keyKind = iota
	keySecret
	keyPrivate
	keyPublic
)

// Key is local key material for signing, verification, encryption, and
// decryption. Construct it with SecretKey, PrivateKey, PublicKey, or the
// PEM variants. The zero value means no local key is configured.
type Key struct {
	kind   keyKind
	secret []byte
	priv   crypto.PrivateKey
	pub    crypto.PublicKey
}

// SecretKey wraps a symmetric secret for the HS algorithm family.
func SecretKey(secret []byte) Key {
	buf := make([]byte, len(secret))
	copy(buf, secret)
	return Key{kind: keySecret, secret: buf}
}

// PrivateKey wraps an asymmetric private key (*rsa.PrivateKey,
// *ecdsa.PrivateKey, or ed25519.PrivateKey). The public half is derived
// once here for verification and encryption use.
func PrivateKey(priv crypto.PrivateKey) (Key, error) {
	signer, ok := priv.(crypto.Signer)
	if !ok {
		return Key{}, fmt.Errorf("%w: private key type %T", ErrInvalidKey, priv)
	}
	switch priv.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
	default:
		return Key{}, fmt.Errorf("%w: private key type %T", ErrInvalidKey, priv)
	}
	return Key{kind: keyPrivate, priv: priv, pub: signer.Public()}, nil
}

// PublicKey wraps a verify-only asymmetric public key.
func PublicKey(pub crypto.PublicKey) (Key, error) {
	switch pub.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
	default:
		return Key{}, fmt.Errorf("%w: public key type %T", ErrInvalidKey, pub)
	}
	return Key{kind: keyPublic, pub: pub}, nil
}

// PrivateKeyPEM parses a PEM-encoded RSA, EC, or Ed25519 private key.
func PrivateKeyPEM(pemBytes []byte) (Key, error) {
	if k, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes); err == nil {
		return PrivateKey(k)
	}
	if k, err := jwt.ParseECPrivateKeyFromPEM(pemBytes); err == nil {
		return PrivateKey(k)
	}
	if k, err := jwt.ParseEdPrivateKeyFromPEM(pemBytes); err == nil {
		return PrivateKey(k)
	}
	return Key{}, fmt.Errorf("%w: not a PEM RSA, EC, or Ed25519 private key", ErrInvalidKey)
}

// PublicKeyPEM parses a PEM-encoded RSA, EC, or Ed25519 public key.
func PublicKeyPEM(pemBytes []byte) (Key, error) {
	if k, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes); err == nil {
		return PublicKey(k)
	}
	if k, err := jwt.ParseECPublicKeyFromPEM(pemBytes); err == nil {
		return PublicKey(k)
	}
	if k, err := jwt.ParseEdPublicKeyFromPEM(pemBytes); err == nil {
		return PublicKey(k)
	}
	return Key{}, fmt.Errorf("%w: not a PEM RSA, EC, or Ed25519 public key", ErrInvalidKey)
}

// IsZero reports whether no key material is configured.
func (k Key) IsZero() bool { return k.kind == keyNone }

func (k Key) canSign() bool { return k.kind == keySecret || k.kind == keyPrivate }

// signingMaterial returns the value handed to the JWS provider for signing.
func (k Key) signingMaterial() (any, error) {
	switch k.kind {
	case keySecret:
		return k.secret, nil
	case keyPrivate:
		return k.priv, nil
	default:
		return nil, ErrSigningUnavailable
	}
}

// verificationMaterial returns the value handed to the JWS provider for
// signature checks: the secret for HS, the public key otherwise.
func (k Key) verificationMaterial() (any, error) {
	switch k.kind {
	case keySecret:
		return k.secret, nil
	case keyPrivate, keyPublic:
		return k.pub, nil
	default:
		return nil, ErrNoMatchingKey
	}
}

// encryptionRecipient returns the JWE recipient material: the public key
// for asymmetric key management, the raw secret for symmetric wrap.
func (k Key) encryptionRecipient() (any, error) {
	switch k.kind {
	case keySecret:
		return k.secret, nil
	case keyPrivate, keyPublic:
		return k.pub, nil
	default:
		return nil, ErrEncryptionUnavailable
	}
}

// decryptionMaterial returns the JWE decryption material. Verify-only
// public keys cannot decrypt.
func (k Key) decryptionMaterial() (any, error) {
	switch k.kind {
	case keySecret:
		return k.secret, nil
	case keyPrivate:
		return k.priv, nil
	default:
		return nil, ErrNoMatchingKey
	}
}

// defaultSigningAlgorithm derives the fallback algorithm from the key
// representation: HS256 for secrets, otherwise by key type and curve.
func (k Key) defaultSigningAlgorithm() (string, error) {
	switch k.kind {
	case keySecret:
		return "HS256", nil
	case keyPrivate, keyPublic:
		return algorithmForPublicKey(k.pub)
	default:
		return "", ErrNoKeyConfigured
	}
}

// verificationAlgorithms lists the algorithms this key may legitimately
// verify. Used to derive the allow-list when none is configured.
func (k Key) verificationAlgorithms() []string {
	switch k.kind {
	case keySecret:
		return []string{"HS256", "HS384", "HS512"}
	case keyPrivate, keyPublic:
		switch pub := k.pub.(type) {
		case *rsa.PublicKey:
			return []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}
		case *ecdsa.PublicKey:
			if alg, err := algorithmForECDSACurve(pub.Curve); err == nil {
				return []string{alg}
			}
			return nil
		case ed25519.PublicKey:
			return []string{"EdDSA"}
		}
	}
	return nil
}

// supportsAlgorithm reports whether alg is usable with this key material.
func (k Key) supportsAlgorithm(alg string) bool {
	for _, candidate := range k.verificationAlgorithms() {
		if candidate == alg {
			return true
		}
	}
	return false
}

func algorithmForPublicKey(pub crypto.PublicKey) (string, error) {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return "RS256", nil
	case *ecdsa.PublicKey:
		return algorithmForECDSACurve(key.Curve)
	case ed25519.PublicKey:
		return "EdDSA", nil
	default:
		return "", fmt.Errorf("%w: key type %T", ErrInvalidKey, pub)
	}
}

func algorithmForECDSACurve(curve elliptic.Curve) (string, error) {
	switch curve {
	case elliptic.P256():
		return "ES256", nil
	case elliptic.P384():
		return "ES384", nil
	case elliptic.P521():
		return "ES512", nil
	default:
		return "", fmt.Errorf("%w: ECDSA curve %s", ErrInvalidKey, curve.Params().Name)
	}
}
