// Package home serves the landing and dashboard routes.
package home

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/launchbase/launchbase/pkg/billing"
	"github.com/launchbase/launchbase/pkg/httpx"
	"github.com/launchbase/launchbase/pkg/logger"
	"github.com/launchbase/launchbase/pkg/session"
	"github.com/launchbase/launchbase/pkg/user"
)

// Deps holds the collaborators the home module needs. Billing is optional;
// without it the dashboard reports an inactive subscription.
type Deps struct {
	Sessions *session.Manager
	Users    user.Store
	Billing  billing.Provider
	Logger   *slog.Logger
}

// Router mounts the landing page and the gated dashboard.
func Router(deps Deps) chi.Router {
	if deps.Sessions == nil {
		panic("home: session manager is required")
	}
	if deps.Users == nil {
		panic("home: user store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Get("/", h.landing)
	r.With(deps.Sessions.RequireSession).Get("/dashboard", h.dashboard)
	return r
}

type handlers struct {
	deps Deps
}

type landingPayload struct {
	Name          string `json:"name"`
	Authenticated bool   `json:"authenticated"`
	SignInURL     string `json:"signInUrl"`
}

// landing redirects signed-in users straight to the dashboard. A cookie that
// no longer resolves to a session, or a session whose user vanished from the
// directory, is cleared here so the browser stops presenting it.
func (h *handlers) landing(w http.ResponseWriter, r *http.Request) {
	codec := h.deps.Sessions.Codec()

	if id, ok := codec.Read(r); ok {
		sess, err := h.deps.Sessions.Validate(r.Context(), id)
		switch {
		case err == nil:
			if _, err := h.deps.Users.FindByID(r.Context(), sess.UserID); err == nil {
				http.Redirect(w, r, "/dashboard", http.StatusFound)
				return
			}
			// Session outlived its user record.
			h.deps.Sessions.Destroy(r.Context(), sess.ID)
			codec.Clear(w)
		default:
			codec.Clear(w)
		}
	}

	httpx.JSON(w, http.StatusOK, landingPayload{
		Name:      "LaunchBase",
		SignInURL: "/oauth/google",
	})
}

type dashboardPayload struct {
	User         *user.User     `json:"user"`
	Subscription billing.Status `json:"subscription"`
}

// dashboard returns the signed-in user and their subscription state. If the
// user record is gone the session is dead weight; drop it and send the
// browser back to the landing page.
func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	u, err := h.deps.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			h.deps.Sessions.Destroy(r.Context(), sess.ID)
			h.deps.Sessions.Codec().Clear(w)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		h.deps.Logger.ErrorContext(r.Context(), "dashboard user lookup failed",
			logger.Error(err),
			logger.UserID(sess.UserID),
			logger.Component("home"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.JSON(w, http.StatusOK, dashboardPayload{
		User:         u,
		Subscription: h.subscriptionStatus(r, u),
	})
}

/// subscriptionStatus is fail-soft: any provider trouble renders as inactive
// rather than breaking the dashboard.
func (h *handlers) subscriptionStatus(r *http.Request, u *user.User) billing.Status {
	if h.deps.Billing == nil || u.BillingCustomerID == "" {
		return billing.Status{}
	}
	status, err := h.deps.Billing.SubscriptionStatus(r.Context(), u.BillingCustomerID)
	if err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "subscription status lookup failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("home"),
		)
		return billing.Status{}
	}
	return status
}
