// Package token owns the access-token trust domain: short-lived bearer
// credentials returned in response bodies and presented on protected
// routes. The renewal trust domain lives in token/renewal with its own
// independent secret.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTokenInvalid covers every access-token verification failure:
// bad signature, malformed token, or expiry.
var ErrTokenInvalid = errors.New("token expired or invalid")

// Issuer signs and verifies access tokens with the access-domain
// secret and a fixed expiry.
type Issuer struct {
	signer  Signer
	expiry  time.Duration
	nowFunc func() time.Time
}

type IssuerOption func(*Issuer)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(secret string, expiry time.Duration, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:  NewHMACSigner(secret),
		expiry:  expiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Expiry returns the configured access-token lifetime.
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// Issue creates a signed access token asserting the given subject.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.nowFunc()
	claims := jwt.MapClaims{
		"sub": userID,                   // The subject, the user the token was minted for
		"iat": now.Unix(),               // Issued At: the time at which the token was issued
		"exp": now.Add(i.expiry).Unix(), // Expiry: when the token will expire
		"jti": uuid.New().String(),      // Unique token ID
	}
	signedToken, err := i.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.Issue] Sign")
	}
	return signedToken, nil
}

// Verify validates signature and expiry and returns the subject.
// Every failure mode collapses into ErrTokenInvalid; callers translate
// that into an unauthorized response, never a panic.
func (i *Issuer) Verify(rawToken string) (string, error) {
	parsed, err := jwt.Parse(rawToken, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
	)
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}
