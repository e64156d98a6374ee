package session

import (
	"encoding/json"
	"net/http"
)

// RequireSession gates protected routes behind a valid session.
//
// A request with no session cookie is rejected outright without touching the
// store. A presented but invalid id (stale, expired, unknown) gets the cookie
// cleared before rejection so the client does not loop on a dead credential.
// On success the resolved session rides the request context for downstream
// handlers. Validation failure is final for the request; there are no
// retries.
func (m *Manager) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.codec.Read(r)
		if !ok {
			unauthorized(w, "No session found")
			return
		}

		sess, err := m.Validate(r.Context(), id)
		if err != nil {
			m.codec.Clear(w)
			unauthorized(w, "Invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
