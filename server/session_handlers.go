package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-session-server/auth"
	"github.com/jrsteele09/go-session-server/token/renewal"
	"github.com/jrsteele09/go-session-server/users"
	"github.com/rs/zerolog/log"
)

// RenewalCookieName is the fixed name of the renewal-token cookie.
const RenewalCookieName = "refresh_token"

const contentTypeJSON = "application/json"

// LoginRequest is the body of POST /session/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// SessionResponse is the body returned by login and refresh. The
// renewal token travels only in the cookie, never here.
type SessionResponse struct {
	JWT  string            `json:"jwt"`
	User *users.PublicUser `json:"user"`
}

// LoginHandler establishes a session (POST /session/login).
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tokens, user, err := s.session.Login(req.Identifier, req.Password)
		switch {
		case err == nil:
		case err == auth.ErrMissingCredentials:
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		case err == auth.ErrInvalidCredentials:
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		default:
			log.Err(err).Msg("login failed")
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}

		s.setRenewalCookie(w, r, tokens.Renewal)
		writeJSON(w, http.StatusOK, SessionResponse{
			JWT:  tokens.Access,
			User: users.NewPublicUser(user),
		})
	}
}

// RefreshHandler mints a fresh access token from the renewal cookie
// (POST /session/refresh). The cookie itself is left untouched: the
// session lifetime was fixed at login.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(RenewalCookieName)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, http.StatusUnauthorized, "no refresh token")
			return
		}

		accessToken, user, err := s.session.Refresh(cookie.Value)
		switch {
		case err == nil:
		case err == renewal.ErrTokenInvalid, err == renewal.ErrWrongPurpose, err == auth.ErrUserNotFound:
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		default:
			log.Err(err).Msg("refresh failed")
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, SessionResponse{
			JWT:  accessToken,
			User: users.NewPublicUser(user),
		})
	}
}

// LogoutHandler clears the renewal cookie (POST /session/logout).
// Idempotent: succeeds with or without an existing session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clearRenewalCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// MeHandler returns the sanitized current user (GET /session/me,
// behind RequireAuth).
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, users.NewPublicUser(user))
	}
}

// setRenewalCookie writes the renewal cookie. MaxAge derives from the
// same configured lifetime as the token's exp claim; secure/sameSite
// come from per-request transport detection.
func (s *Server) setRenewalCookie(w http.ResponseWriter, r *http.Request, renewalToken string) {
	secure, sameSite := cookieAttributes(requestIsSecure(r, s.trustProxy))
	http.SetCookie(w, &http.Cookie{
		Name:     RenewalCookieName,
		Value:    renewalToken,
		Path:     "/",
		MaxAge:   int(s.config.GetRenewalLifetime().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// clearRenewalCookie overwrites the renewal cookie with an immediately
// expiring empty value. Every other attribute matches the cookie set
// at login; a mismatch would make the browser treat it as a different
// cookie and keep the original.
func (s *Server) clearRenewalCookie(w http.ResponseWriter, r *http.Request) {
	secure, sameSite := cookieAttributes(requestIsSecure(r, s.trustProxy))
	http.SetCookie(w, &http.Cookie{
		Name:     RenewalCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
