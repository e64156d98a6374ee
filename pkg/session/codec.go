package session

import (
	"net/http"
	"time"
)

// CookieCodec maps a session id to and from the session cookie.
//
// The cookie value is the raw session id. Attributes are fixed: Path=/,
// HttpOnly, SameSite=Lax, plus Secure when the deployment runs behind HTTPS
// in production. The Secure flag stays off elsewhere so local plaintext HTTP
// testing works.
type CookieCodec struct {
	name   string
	secure bool
}

// NewCookieCodec creates a codec for the named cookie.
func NewCookieCodec(name string, secure bool) *CookieCodec {
	return &CookieCodec{name: name, secure: secure}
}

// Name returns the cookie name.
func (c *CookieCodec) Name() string {
	return c.name
}

// Set writes the session cookie with Max-Age covering the given lifetime.
func (c *CookieCodec) Set(w http.ResponseWriter, id string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read extracts the session id from the inbound request. Absence is not an
// error; it simply means no session was presented.
func (c *CookieCodec) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear emits a deletion cookie (empty value, Max-Age=0) so the browser
// drops the session cookie immediately.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
