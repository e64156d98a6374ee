// Package auth serves the OAuth sign-in flow and the session management API.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/launchbase/launchbase/pkg/httpx"
	"github.com/launchbase/launchbase/pkg/logger"
	"github.com/launchbase/launchbase/pkg/oauth"
	"github.com/launchbase/launchbase/pkg/session"
	"github.com/launchbase/launchbase/pkg/user"
)

// Deps holds the collaborators the auth module needs.
type Deps struct {
	Sessions *session.Manager
	Users    user.Store
	OAuth    *oauth.Service
	Logger   *slog.Logger
}

func (d *Deps) validate() {
	if d.Sessions == nil {
		panic("auth: session manager is required")
	}
	if d.Users == nil {
		panic("auth: user store is required")
	}
	if d.OAuth == nil {
		panic("auth: oauth service is required")
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
}

// Router mounts the public OAuth routes. Mount under /oauth.
func Router(deps Deps) chi.Router {
	deps.validate()
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Get("/google", h.begin)
	r.Get("/google/callback", h.callback)
	return r
}

// APIRouter mounts the session management routes. Mount under an
// authenticated /api/auth group.
func APIRouter(deps Deps) chi.Router {
	deps.validate()
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Post("/logout", h.logout)
	r.Post("/refresh", h.refresh)
	return r
}

type handlers struct {
	deps Deps
}

// begin redirects the browser to the provider's consent screen.
func (h *handlers) begin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.deps.OAuth.Begin(r.Context())
	if err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "oauth begin failed",
			logger.Error(err),
			logger.Component("auth"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// callback completes the code exchange, establishes a session and sends the
// browser to the dashboard.
func (h *handlers) callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		httpx.Error(w, http.StatusBadRequest, "Missing code or state")
		return
	}

	u, err := h.deps.OAuth.Complete(r.Context(), code, state)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidState):
			httpx.Error(w, http.StatusBadRequest, "Invalid or expired state")
		case errors.Is(err, oauth.ErrUnverifiedEmail):
			httpx.Error(w, http.StatusForbidden, "Email address is not verified")
		default:
			h.deps.Logger.ErrorContext(r.Context(), "oauth callback failed",
				logger.Error(err),
				logger.Component("auth"),
			)
			httpx.Error(w, http.StatusInternalServerError, "Authentication failed")
		}
		return
	}

	id, err := h.deps.Sessions.Create(r.Context(), session.Identity{
		UserID:            u.ID,
		UserEmail:         u.Email,
		UserName:          u.Name,
		BillingCustomerID: u.BillingCustomerID,
	})
	if err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "session create failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("auth"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	h.deps.Sessions.Codec().Set(w, id, h.deps.Sessions.TTL())
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// logout destroys the current session and clears the cookie. Always
// succeeds from the client's point of view.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	h.deps.Sessions.Destroy(r.Context(), sess.ID)
	h.deps.Sessions.Codec().Clear(w)
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

type refreshPayload struct {
	User      *user.User `json:"user"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// refresh re-snapshots the identity from the user directory and slides the
// session expiry. A session whose user record is gone cannot be refreshed.
func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	u, err := h.deps.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.deps.Logger.ErrorContext(r.Context(), "refresh user lookup failed",
			logger.Error(err),
			logger.UserID(sess.UserID),
			logger.Component("auth"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	updated, err := h.deps.Sessions.Refresh(r.Context(), sess.ID, &session.IdentityUpdate{
		UserEmail:         &u.Email,
		UserName:          &u.Name,
		BillingCustomerID: &u.BillingCustomerID,
	})
	if err != nil {
		h.deps.Sessions.Codec().Clear(w)
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired session")
		return
	}

	h.deps.Sessions.Codec().Set(w, updated.ID, h.deps.Sessions.TTL())
	httpx.JSON(w, http.StatusOK, refreshPayload{
		User:      u,
		ExpiresAt: updated.ExpiresAt.UTC(),
	})
}
