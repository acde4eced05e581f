package server

import "net/http"

// requestIsSecure reports whether the logical connection is HTTPS.
// When a reverse proxy terminates TLS the application sees plain HTTP,
// so the connection-level TLS state alone is insufficient: with
// trustProxy set, the proxy's declared protocol is consulted too.
// Misdetection is a correctness bug - Secure=true on a connection the
// browser perceives as HTTP makes it silently drop the cookie.
func requestIsSecure(r *http.Request, trustProxy bool) bool {
	if r.TLS != nil {
		return true
	}
	if trustProxy && r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return false
}

// cookieAttributes returns the secure flag and SameSite policy for the
// renewal cookie. SameSite=None permits cross-site delivery (separate
// frontend/backend domains) and is only valid on secure connections;
// otherwise Lax.
func cookieAttributes(secure bool) (bool, http.SameSite) {
	if secure {
		return true, http.SameSiteNoneMode
	}
	return false, http.SameSiteLaxMode
}
