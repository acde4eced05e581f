// Package auth implements the session lifecycle: establishing a
// session from credentials, renewing the access token from a renewal
// token, and the failure taxonomy shared by both. Sessions are
// stateless; validity is recomputed from the presented token on every
// call, never read from a store.
package auth

import (
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/token/renewal"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/pkg/errors"
)

// PasswordCheck verifies a plaintext password against a stored hash.
type PasswordCheck func(password, hash string) bool

// SessionService orchestrates the user store, the access-token issuer
// and the renewal-token manager. The two token domains never share a
// secret.
type SessionService struct {
	userRepo      users.UserRepo
	accessTokens  *token.Issuer
	renewalTokens *renewal.Manager
	checkPassword PasswordCheck
}

// Tokens is the result of establishing a session. The renewal token is
// handed to the transport layer for cookie delivery only; it must
// never appear in a response body.
type Tokens struct {
	Access  string
	Renewal string
}

type SessionServiceOption func(*SessionService)

// WithPasswordCheck overrides the password-verification collaborator
// (primarily for testing).
func WithPasswordCheck(check PasswordCheck) SessionServiceOption {
	return func(s *SessionService) {
		s.checkPassword = check
	}
}

// NewSessionService initializes a SessionService with required dependencies.
func NewSessionService(
	userRepo users.UserRepo,
	accessTokens *token.Issuer,
	renewalTokens *renewal.Manager,
	options ...SessionServiceOption,
) (*SessionService, error) {
	if userRepo == nil {
		return nil, errors.New("[NewSessionService] user repo is required")
	}
	if accessTokens == nil {
		return nil, errors.New("[NewSessionService] access token issuer is required")
	}
	if renewalTokens == nil {
		return nil, errors.New("[NewSessionService] renewal token manager is required")
	}

	service := &SessionService{
		userRepo:      userRepo,
		accessTokens:  accessTokens,
		renewalTokens: renewalTokens,
		checkPassword: users.CheckPasswordHash,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Login establishes a session. The identifier matches either email or
// username. Unknown identifier and wrong password both return
// ErrInvalidCredentials so the two cases are indistinguishable to the
// caller.
func (s *SessionService) Login(identifier, password string) (Tokens, *users.User, error) {
	if identifier == "" || password == "" {
		return Tokens{}, nil, ErrMissingCredentials
	}

	user, err := s.userRepo.GetByIdentifier(identifier)
	if err != nil {
		return Tokens{}, nil, ErrInvalidCredentials
	}

	if !s.checkPassword(password, user.PasswordHash) {
		return Tokens{}, nil, ErrInvalidCredentials
	}

	accessToken, err := s.accessTokens.Issue(user.ID)
	if err != nil {
		return Tokens{}, nil, errors.Wrap(err, "[SessionService.Login] Issue")
	}

	renewalToken, err := s.renewalTokens.Sign(user.ID)
	if err != nil {
		return Tokens{}, nil, errors.Wrap(err, "[SessionService.Login] Sign")
	}

	return Tokens{Access: accessToken, Renewal: renewalToken}, user, nil
}

// Refresh mints a fresh access token from a presented renewal token.
// The renewal token itself is left untouched: no rotation, no lifetime
// extension. Verification failures surface as renewal.ErrTokenInvalid
// or renewal.ErrWrongPurpose; a deleted account as ErrUserNotFound.
func (s *SessionService) Refresh(rawRenewalToken string) (string, *users.User, error) {
	userID, err := s.renewalTokens.Verify(rawRenewalToken)
	if err != nil {
		return "", nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	accessToken, err := s.accessTokens.Issue(user.ID)
	if err != nil {
		return "", nil, errors.Wrap(err, "[SessionService.Refresh] Issue")
	}

	return accessToken, user, nil
}

// VerifyAccess validates a bearer access token and returns the user it
// was minted for. Used by the guard on protected routes.
func (s *SessionService) VerifyAccess(rawAccessToken string) (*users.User, error) {
	userID, err := s.accessTokens.Verify(rawAccessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
