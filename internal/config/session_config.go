package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	accessSecretEnvVar     = "JWT_SECRET"
	renewalSecretEnvVar    = "REFRESH_SECRET"
	accessLifetimeEnvVar   = "JWT_LIFETIME"
	renewalLifetimeEnvVar  = "REFRESH_LIFETIME"
	defaultAccessLifetime  = "15m"
	defaultRenewalLifetime = "7d"

	// DefaultAccessSecret and DefaultRenewalSecret are insecure
	// placeholders used when the corresponding environment variable is
	// unset. Deployments must override both; startup logs a warning
	// when either fallback is in use.
	DefaultAccessSecret  = "insecure-dev-access-secret"
	DefaultRenewalSecret = "insecure-dev-renewal-secret"
)

type SessionConfig interface {
	GetAccessSecret() string
	GetRenewalSecret() string
	GetAccessLifetime() time.Duration
	GetRenewalLifetime() time.Duration
	UsingDefaultSecrets() bool
}

// Session holds the resolved session configuration. The lifetime
// strings are parsed once here, so the access-token expiry and the
// renewal cookie max-age always come from the same parsed value.
type Session struct {
	accessSecret    string
	renewalSecret   string
	accessLifetime  time.Duration
	renewalLifetime time.Duration
}

var _ SessionConfig = Session{}

// NewSession resolves secrets and lifetimes from the environment,
// failing fast on malformed lifetime strings.
func NewSession() (Session, error) {
	accessLifetime, err := ParseLifetime(GetEnv(accessLifetimeEnvVar, defaultAccessLifetime))
	if err != nil {
		return Session{}, errors.Wrapf(err, "[NewSession] %s", accessLifetimeEnvVar)
	}
	renewalLifetime, err := ParseLifetime(GetEnv(renewalLifetimeEnvVar, defaultRenewalLifetime))
	if err != nil {
		return Session{}, errors.Wrapf(err, "[NewSession] %s", renewalLifetimeEnvVar)
	}

	s := Session{
		accessSecret:    GetEnv(accessSecretEnvVar, DefaultAccessSecret),
		renewalSecret:   GetEnv(renewalSecretEnvVar, DefaultRenewalSecret),
		accessLifetime:  accessLifetime,
		renewalLifetime: renewalLifetime,
	}

	if s.UsingDefaultSecrets() {
		log.Warn().Msg("signing secrets not configured: falling back to insecure defaults, set JWT_SECRET and REFRESH_SECRET before deploying")
	}

	return s, nil
}

func (s Session) GetAccessSecret() string {
	return s.accessSecret
}

func (s Session) GetRenewalSecret() string {
	return s.renewalSecret
}

func (s Session) GetAccessLifetime() time.Duration {
	return s.accessLifetime
}

func (s Session) GetRenewalLifetime() time.Duration {
	return s.renewalLifetime
}

// UsingDefaultSecrets reports whether either trust domain is still on
// its insecure placeholder secret.
func (s Session) UsingDefaultSecrets() bool {
	return s.accessSecret == DefaultAccessSecret || s.renewalSecret == DefaultRenewalSecret
}
