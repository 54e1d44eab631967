package jwtx

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSharedSecret = errors.New("jwtx: session and refresh secrets must differ")
	ErrUnknownClass = errors.New("jwtx: unknown token class")
)

// IssuerOptions configures an Issuer.
type IssuerOptions struct {
	// Issuer is the "iss" claim written into and required on every token.
	Issuer string

	// SessionSecret and RefreshSecret key the two token classes. Both are
	// required and must differ.
	SessionSecret []byte
	RefreshSecret []byte

	// Zero TTLs fall back to DefaultSessionTokenTTL / DefaultRefreshTokenTTL.
	SessionTTL time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock used for issuing and verifying. Defaults to time.Now.
	Now func() time.Time
}

type classKeys struct {
	signer   Signer
	verifier Verifier
	ttl      time.Duration
}

// Issuer signs and verifies the session and refresh token classes, each with
// its own secret. It holds no mutable state and is safe for concurrent use.
type Issuer struct {
	issuer  string
	now     func() time.Time
	classes map[TokenClass]classKeys
}

// IssuedToken is a freshly signed token with its expiry.
type IssuedToken struct {
	Token     string
	Class     TokenClass
	ExpiresAt time.Time

	// ExpiresIn is the configured lifetime of the class.
	ExpiresIn time.Duration
}

// NewIssuer validates opts and builds an Issuer.
func NewIssuer(opts IssuerOptions) (*Issuer, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}
	if len(opts.SessionSecret) == 0 || len(opts.RefreshSecret) == 0 {
		return nil, errors.New("jwtx: both session and refresh secrets are required")
	}
	if bytes.Equal(opts.SessionSecret, opts.RefreshSecret) {
		return nil, ErrSharedSecret
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTokenTTL
	}
	refreshTTL := opts.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	i := &Issuer{
		issuer:  opts.Issuer,
		now:     now,
		classes: make(map[TokenClass]classKeys, 2),
	}

	for class, spec := range map[TokenClass]struct {
		secret []byte
		ttl    time.Duration
	}{
		ClassSession: {opts.SessionSecret, sessionTTL},
		ClassRefresh: {opts.RefreshSecret, refreshTTL},
	} {
		signer, err := NewSignerHS256(spec.secret)
		if err != nil {
			return nil, fmt.Errorf("jwtx: %s signer: %w", class, err)
		}
		i.classes[class] = classKeys{
			signer:   signer,
			verifier: NewVerifierHS256(spec.secret, opts.Issuer, now),
			ttl:      spec.ttl,
		}
	}

	return i, nil
}

// Issue signs a token of the given class for id.
func (i *Issuer) Issue(id Identity, class TokenClass) (IssuedToken, error) {
	keys, ok := i.classes[class]
	if !ok {
		return IssuedToken{}, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}

	claims := NewClaims(id, class, i.issuer, keys.ttl, i.now().UTC())
	token, err := keys.signer.Sign(claims)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("jwtx: sign %s token: %w", class, err)
	}

	return IssuedToken{
		Token:     token,
		Class:     class,
		ExpiresAt: claims.ExpiresAt.Time,
		ExpiresIn: keys.ttl,
	}, nil
}

// Verify checks token against the secret of class and requires the class
// marker to match. Every failure wraps ErrInvalidToken.
func (i *Issuer) Verify(token string, class TokenClass) (Claims, error) {
	keys, ok := i.classes[class]
	if !ok {
		return Claims{}, invalid(ErrUnknownClass, nil)
	}

	claims, err := keys.verifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateClass(class); err != nil {
		return Claims{}, invalid(err, nil)
	}

	return claims, nil
}

// TTL reports the lifetime of tokens of the given class.
func (i *Issuer) TTL(class TokenClass) time.Duration {
	return i.classes[class].ttl
}

// Ready reports whether every class has a usable signer.
func (i *Issuer) Ready() error {
	for class, keys := range i.classes {
		if err := keys.signer.Validate(); err != nil {
			return fmt.Errorf("jwtx: %s signer: %w", class, err)
		}
	}
	return nil
}
