package auth_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-session-server/auth"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/token/renewal"
	"github.com/jrsteele09/go-session-server/users"
	fakeuserrepo "github.com/jrsteele09/go-session-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret     = "access-secret-1"
	renewalSecret    = "renewal-secret-1"
	testUserEmail    = "john.doe@example.com"
	testUsername     = "johndoe"
	testUserPassword = "password123"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	service  *auth.SessionService
	userID   string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()

	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)

	user := &users.User{
		Email:        testUserEmail,
		Username:     testUsername,
		PasswordHash: hash,
		Confirmed:    true,
	}
	require.NoError(t, ur.Upsert(user))

	service, err := auth.NewSessionService(
		ur,
		token.NewIssuer(accessSecret, 15*time.Minute),
		renewal.NewManager(renewalSecret, 7*24*time.Hour),
	)
	require.NoError(t, err)

	return &testFixture{userRepo: ur, service: service, userID: user.ID}
}

func TestNewSessionServiceRequiresDependencies(t *testing.T) {
	issuer := token.NewIssuer(accessSecret, 15*time.Minute)
	renewals := renewal.NewManager(renewalSecret, 7*24*time.Hour)

	_, err := auth.NewSessionService(nil, issuer, renewals)
	require.Error(t, err)

	_, err = auth.NewSessionService(fakeuserrepo.NewFakeUserRepo(), nil, renewals)
	require.Error(t, err)

	_, err = auth.NewSessionService(fakeuserrepo.NewFakeUserRepo(), issuer, nil)
	require.Error(t, err)
}

func TestLoginWithEmailOrUsername(t *testing.T) {
	f := setupTestFixture(t)

	for _, identifier := range []string{testUserEmail, testUsername} {
		tokens, user, err := f.service.Login(identifier, testUserPassword)
		require.NoError(t, err)
		require.NotEmpty(t, tokens.Access)
		require.NotEmpty(t, tokens.Renewal)
		require.Equal(t, f.userID, user.ID)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	f := setupTestFixture(t)

	_, _, err := f.service.Login("", testUserPassword)
	require.ErrorIs(t, err, auth.ErrMissingCredentials)

	_, _, err = f.service.Login(testUserEmail, "")
	require.ErrorIs(t, err, auth.ErrMissingCredentials)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := setupTestFixture(t)

	_, _, unknownErr := f.service.Login("nobody@example.com", testUserPassword)
	_, _, wrongPasswordErr := f.service.Login(testUserEmail, "wrong-password")

	require.ErrorIs(t, unknownErr, auth.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPasswordErr, auth.ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongPasswordErr.Error())
}

func TestRefreshMintsFreshAccessToken(t *testing.T) {
	f := setupTestFixture(t)

	tokens, _, err := f.service.Login(testUserEmail, testUserPassword)
	require.NoError(t, err)

	accessToken, user, err := f.service.Refresh(tokens.Renewal)
	require.NoError(t, err)
	require.Equal(t, f.userID, user.ID)
	require.NotEqual(t, tokens.Access, accessToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := setupTestFixture(t)

	tokens, _, err := f.service.Login(testUserEmail, testUserPassword)
	require.NoError(t, err)

	// An access token presented on the refresh path is the wrong trust
	// domain and must be rejected.
	_, _, err = f.service.Refresh(tokens.Access)
	require.ErrorIs(t, err, renewal.ErrTokenInvalid)
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	f := setupTestFixture(t)

	tokens, _, err := f.service.Login(testUserEmail, testUserPassword)
	require.NoError(t, err)

	require.NoError(t, f.userRepo.Delete(f.userID))

	_, _, err = f.service.Refresh(tokens.Renewal)
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestWithPasswordCheckOverride(t *testing.T) {
	ur := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, ur.Upsert(&users.User{Email: testUserEmail, PasswordHash: "opaque"}))

	service, err := auth.NewSessionService(
		ur,
		token.NewIssuer(accessSecret, 15*time.Minute),
		renewal.NewManager(renewalSecret, 7*24*time.Hour),
		auth.WithPasswordCheck(func(password, hash string) bool { return password == "letmein" }),
	)
	require.NoError(t, err)

	_, _, err = service.Login(testUserEmail, "letmein")
	require.NoError(t, err)

	_, _, err = service.Login(testUserEmail, "anything-else")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyAccess(t *testing.T) {
	f := setupTestFixture(t)

	tokens, _, err := f.service.Login(testUserEmail, testUserPassword)
	require.NoError(t, err)

	user, err := f.service.VerifyAccess(tokens.Access)
	require.NoError(t, err)
	require.Equal(t, f.userID, user.ID)

	_, err = f.service.VerifyAccess(tokens.Renewal)
	require.Error(t, err)
}
