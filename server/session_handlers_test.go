package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-server/internal/config"
	"github.com/jrsteele09/go-session-server/server"
	"github.com/jrsteele09/go-session-server/token"
	"github.com/jrsteele09/go-session-server/token/renewal"
	"github.com/jrsteele09/go-session-server/users"
	fakeuserrepo "github.com/jrsteele09/go-session-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-1"
	testRenewalSecret = "renewal-secret-1"
	testUserEmail     = "john.doe@example.com"
	testUsername      = "johndoe"
	testUserPassword  = "password123"
)

type testFixture struct {
	server   *server.Server
	userRepo *fakeuserrepo.FakeUserRepo
	userID   string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	t.Setenv("JWT_SECRET", testAccessSecret)
	t.Setenv("REFRESH_SECRET", testRenewalSecret)
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := config.New()
	require.NoError(t, err)

	ur := fakeuserrepo.NewFakeUserRepo()
	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)

	user := &users.User{
		Email:              testUserEmail,
		Username:           testUsername,
		PasswordHash:       hash,
		ResetPasswordToken: "reset-token-1",
		ConfirmationToken:  "confirmation-token-1",
		FirstName:          "John",
		LastName:           "Doe",
		Confirmed:          true,
	}
	require.NoError(t, ur.Upsert(user))

	srv, err := server.New(cfg, ur)
	require.NoError(t, err)

	return &testFixture{server: srv, userRepo: ur, userID: user.ID}
}

func (f *testFixture) do(t *testing.T, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	return w
}

func loginRequest(identifier, password string) *http.Request {
	body, _ := json.Marshal(map[string]string{"identifier": identifier, "password": password})
	r := httptest.NewRequest(http.MethodPost, server.RouteSessionLogin, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func renewalCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == server.RenewalCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", server.RenewalCookieName)
	return nil
}

func TestLoginMissingFieldsIsBadRequest(t *testing.T) {
	f := setupTestFixture(t)

	for _, req := range []*http.Request{
		loginRequest("", testUserPassword),
		loginRequest(testUserEmail, ""),
	} {
		w := f.do(t, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestLoginFailuresShareStatusAndMessage(t *testing.T) {
	f := setupTestFixture(t)

	unknown := f.do(t, loginRequest("nobody@example.com", testUserPassword))
	wrongPassword := f.do(t, loginRequest(testUserEmail, "wrong-password"))

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, unknown.Body.String(), wrongPassword.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, loginRequest(testUserEmail, testUserPassword))
	require.Equal(t, http.StatusOK, w.Code)

	var resp server.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JWT)
	require.NotNil(t, resp.User)
	require.Equal(t, f.userID, resp.User.ID)

	// The sanitized user never carries the credential-adjacent fields.
	body := w.Body.String()
	require.NotContains(t, body, "password")
	require.NotContains(t, body, "reset-token-1")
	require.NotContains(t, body, "confirmation-token-1")

	// The renewal token travels only in the cookie.
	cookie := renewalCookie(t, w)
	require.NotEmpty(t, cookie.Value)
	require.NotContains(t, body, cookie.Value)
}

func TestLoginByUsername(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, loginRequest(testUsername, testUserPassword))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginCookieAttributes(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, loginRequest(testUserEmail, testUserPassword))
	cookie := renewalCookie(t, w)

	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/", cookie.Path)
	// Cookie expiry and renewal-token lifetime derive from the same
	// configured value (default 7d).
	require.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	// Plain HTTP request: Lax, not Secure.
	require.False(t, cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestLoginCookieSecureBehindProxy(t *testing.T) {
	f := setupTestFixture(t)

	r := loginRequest(testUserEmail, testUserPassword)
	r.Header.Set("X-Forwarded-Proto", "https")
	w := f.do(t, r)

	cookie := renewalCookie(t, w)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestRefreshWithoutCookieIsUnauthorized(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, httptest.NewRequest(http.MethodPost, server.RouteSessionRefresh, nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshAfterLogin(t *testing.T) {
	f := setupTestFixture(t)

	loginResp := f.do(t, loginRequest(testUserEmail, testUserPassword))
	cookie := renewalCookie(t, loginResp)

	var login server.SessionResponse
	require.NoError(t, json.Unmarshal(loginResp.Body.Bytes(), &login))

	r := httptest.NewRequest(http.MethodPost, server.RouteSessionRefresh, nil)
	r.AddCookie(cookie)
	w := f.do(t, r)
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed server.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed.JWT)
	require.NotEqual(t, login.JWT, refreshed.JWT)
	require.Equal(t, f.userID, refreshed.User.ID)

	// Fixed session: refresh never re-issues the renewal cookie.
	for _, c := range w.Result().Cookies() {
		require.NotEqual(t, server.RenewalCookieName, c.Name)
	}
}

func TestRefreshRejectsAccessTokenInCookie(t *testing.T) {
	f := setupTestFixture(t)

	loginResp := f.do(t, loginRequest(testUserEmail, testUserPassword))
	var login server.SessionResponse
	require.NoError(t, json.Unmarshal(loginResp.Body.Bytes(), &login))

	r := httptest.NewRequest(http.MethodPost, server.RouteSessionRefresh, nil)
	r.AddCookie(&http.Cookie{Name: server.RenewalCookieName, Value: login.JWT})
	w := f.do(t, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsForeignSecret(t *testing.T) {
	f := setupTestFixture(t)

	foreign := renewal.NewManager("a-different-secret", 7*24*time.Hour)
	raw, err := foreign.Sign(f.userID)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, server.RouteSessionRefresh, nil)
	r.AddCookie(&http.Cookie{Name: server.RenewalCookieName, Value: raw})
	w := f.do(t, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsWrongPurposeUnderCorrectSecret(t *testing.T) {
	f := setupTestFixture(t)

	// Signed with the renewal secret but without the purpose claim:
	// cryptographically valid, still rejected.
	w := f.do(t, refreshWithToken(t, accessTokenUnderRenewalSecret(t, f.userID)))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	f := setupTestFixture(t)

	loginResp := f.do(t, loginRequest(testUserEmail, testUserPassword))
	cookie := renewalCookie(t, loginResp)

	require.NoError(t, f.userRepo.Delete(f.userID))

	r := httptest.NewRequest(http.MethodPost, server.RouteSessionRefresh, nil)
	r.AddCookie(cookie)
	w := f.do(t, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)

	// Without a session.
	w := f.do(t, httptest.NewRequest(http.MethodPost, server.RouteSessionLogout, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"ok":true}`, w.Body.String())

	// With a session.
	loginResp := f.do(t, loginRequest(testUserEmail, testUserPassword))
	loginCookie := renewalCookie(t, loginResp)

	r := httptest.NewRequest(http.MethodPost, server.RouteSessionLogout, nil)
	r.AddCookie(loginCookie)
	w = f.do(t, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"ok":true}`, w.Body.String())

	// The clearing cookie must match name and path of the original or
	// the browser would keep the original alive.
	cleared := renewalCookie(t, w)
	require.Empty(t, cleared.Value)
	require.Equal(t, loginCookie.Path, cleared.Path)
	require.Negative(t, cleared.MaxAge)
	require.True(t, cleared.HttpOnly)
}

func TestMeRequiresBearerToken(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteSessionMe, nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	loginResp := f.do(t, loginRequest(testUserEmail, testUserPassword))
	var login server.SessionResponse
	require.NoError(t, json.Unmarshal(loginResp.Body.Bytes(), &login))

	r := httptest.NewRequest(http.MethodGet, server.RouteSessionMe, nil)
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", login.JWT))
	w = f.do(t, r)
	require.Equal(t, http.StatusOK, w.Code)

	var me users.PublicUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, f.userID, me.ID)
	require.False(t, strings.Contains(w.Body.String(), "password"))
}

func refreshWithToken(t *testing.T, raw string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, server.RouteSessionRefresh, nil)
	r.AddCookie(&http.Cookie{Name: server.RenewalCookieName, Value: raw})
	return r
}

func accessTokenUnderRenewalSecret(t *testing.T, userID string) string {
	t.Helper()
	issuer := token.NewIssuer(testRenewalSecret, 15*time.Minute)
	raw, err := issuer.Issue(userID)
	require.NoError(t, err)
	return raw
}
