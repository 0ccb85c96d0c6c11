package signet

import "time"

// signOptions collects per-call signing and encryption overrides. Pointer
// fields distinguish "not supplied" from "supplied empty": a supplied
// empty value suppresses the claim its configured default would emit.
type signOptions struct {
	issuer    *string
	subject   *string
	audience  *[]string
	tokenID   *string
	expiresAt TimeValue
	notBefore TimeValue
	issuedAt  TimeValue

	algorithm         string
	contentEncryption string
	keyID             *string
	headers           map[string]any
	claims            map[string]any
}

// SignOption customizes one Sign or Encrypt call.
type SignOption func(*signOptions)

// WithIssuer overrides the configured default issuer. An empty value
// suppresses the claim.
func WithIssuer(iss string) SignOption {
	return func(o *signOptions) { o.issuer = &iss }
}

// WithSubject overrides the configured default subject. An empty value
// suppresses the claim.
func WithSubject(sub string) SignOption {
	return func(o *signOptions) { o.subject = &sub }
}

// WithAudience overrides the configured default audience. Calling it with
// no values suppresses the claim.
func WithAudience(aud ...string) SignOption {
	return func(o *signOptions) {
		list := append([]string(nil), aud...)
		o.audience = &list
	}
}

// WithTokenID overrides the jti claim. An empty value suppresses both the
// claim and configured UUID generation.
func WithTokenID(jti string) SignOption {
	return func(o *signOptions) { o.tokenID = &jti }
}

// WithExpiry sets the exp claim for this call: At, Unix, In, Now, or
// Absent to suppress the configured default.
func WithExpiry(v TimeValue) SignOption {
	return func(o *signOptions) { o.expiresAt = v }
}

// WithNotBefore sets the nbf claim for this call.
func WithNotBefore(v TimeValue) SignOption {
	return func(o *signOptions) { o.notBefore = v }
}

// WithIssuedAt sets the iat claim for this call. Absent suppresses the
// default include-at-signing behavior; an absolute value is used verbatim.
func WithIssuedAt(v TimeValue) SignOption {
	return func(o *signOptions) { o.issuedAt = v }
}

// WithAlgorithm overrides the algorithm for this call: the signing
// algorithm for Sign, the key-management algorithm for Encrypt. It must
// fit the configured key material.
func WithAlgorithm(alg string) SignOption {
	return func(o *signOptions) { o.algorithm = alg }
}

// WithContentEncryption overrides the JWE content-encryption algorithm
// for one Encrypt call. Sign ignores it.
func WithContentEncryption(enc string) SignOption {
	return func(o *signOptions) { o.contentEncryption = enc }
}

// WithKeyID overrides the kid header for this call. An empty value
// suppresses the configured default.
func WithKeyID(kid string) SignOption {
	return func(o *signOptions) { o.keyID = &kid }
}

// WithHeader sets one protected-header member for this call, overriding
// configured defaults of the same name.
func WithHeader(name string, value any) SignOption {
	return func(o *signOptions) {
		if o.headers == nil {
			o.headers = make(map[string]any)
		}
		o.headers[name] = value
	}
}

// WithClaims merges custom claims on top of everything computed so far;
// collisions with standard claims are last-write-wins.
func WithClaims(claims map[string]any) SignOption {
	return func(o *signOptions) {
		if o.claims == nil {
			o.claims = make(map[string]any, len(claims))
		}
		for name, value := range claims {
			o.claims[name] = value
		}
	}
}

func newSignOptions(opts []SignOption) *signOptions {
	o := &signOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// verifyOptions collects per-call verification overrides, seeded from the
// configured validation defaults.
type verifyOptions struct {
	leeway     time.Duration
	algorithms []string
	issuer     string
	audience   string
	validators []ClaimsValidator
}

// VerifyOption customizes one Verify or Decrypt call.
type VerifyOption func(*verifyOptions)

// WithLeeway overrides the configured clock-skew tolerance for this call.
func WithLeeway(d time.Duration) VerifyOption {
	return func(o *verifyOptions) { o.leeway = d }
}

// WithAllowedAlgorithms restricts the acceptable algorithms for this call,
// overriding the configured and derived allow-lists.
func WithAllowedAlgorithms(algs ...string) VerifyOption {
	return func(o *verifyOptions) { o.algorithms = append([]string(nil), algs...) }
}

// WithExpectedIssuer requires the iss claim to match for this call.
func WithExpectedIssuer(iss string) VerifyOption {
	return func(o *verifyOptions) { o.issuer = iss }
}

// WithExpectedAudience requires the aud claim to contain the value for
// this call.
func WithExpectedAudience(aud string) VerifyOption {
	return func(o *verifyOptions) { o.audience = aud }
}

// WithValidators appends claim validators for this call, run after the
// configured ones.
func WithValidators(validators ...ClaimsValidator) VerifyOption {
	return func(o *verifyOptions) { o.validators = append(o.validators, validators...) }
}

func (e *Engine) newVerifyOptions(opts []VerifyOption) *verifyOptions {
	o := &verifyOptions{
		leeway:     e.cfg.Validation.Leeway,
		issuer:     e.cfg.Validation.ExpectedIssuer,
		audience:   e.cfg.Validation.ExpectedAudience,
		validators: append([]ClaimsValidator(nil), e.cfg.Validation.Validators...),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
