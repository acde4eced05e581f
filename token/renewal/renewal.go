// Package renewal owns the renewal-token trust domain. Renewal tokens
// are signed with a secret independent of the access-token authority,
// travel only inside an httpOnly cookie, and carry a purpose claim so
// an access token presented on the refresh path is rejected even
// though it parses as a valid JWT.
package renewal

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/pkg/errors"
)

// PurposeRefresh is the required value of the purpose claim.
const PurposeRefresh = "refresh"

var (
	// ErrTokenInvalid covers cryptographic and lifetime failures:
	// bad signature, malformed token, expired token.
	ErrTokenInvalid = errors.New("refresh token expired or invalid")

	// ErrWrongPurpose marks a token that verified cryptographically
	// but was minted for another purpose (wrong audience), which is a
	// distinct failure from ErrTokenInvalid.
	ErrWrongPurpose = errors.New("token not issued for refresh")
)

// Manager signs and verifies renewal tokens.
type Manager struct {
	signer  token.Signer
	expiry  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(secret string, expiry time.Duration, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  token.NewHMACSigner(secret),
		expiry:  expiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Expiry returns the configured renewal-token lifetime. The cookie
// max-age is derived from this same value so the two cannot drift.
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Sign creates a renewal token asserting the given subject with
// purpose "refresh".
func (m *Manager) Sign(userID string) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"sub":     userID,
		"purpose": PurposeRefresh,
		"iat":     now.Unix(),
		"exp":     now.Add(m.expiry).Unix(),
		"jti":     uuid.New().String(),
	}
	signedToken, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Sign] Sign")
	}
	return signedToken, nil
}

// Verify validates signature and expiry, enforces the purpose claim,
// and returns the subject. Signature/expiry/malformed failures return
// ErrTokenInvalid; a cryptographically valid token without
// purpose "refresh" returns ErrWrongPurpose.
func (m *Manager) Verify(rawToken string) (string, error) {
	parsed, err := jwt.Parse(rawToken, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	if purpose, _ := claims["purpose"].(string); purpose != PurposeRefresh {
		return "", ErrWrongPurpose
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}
