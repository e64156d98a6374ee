// Package subscription serves the billing API: subscription status, hosted
// checkout and the customer portal.
package subscription

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

// Deps holds the collaborators the subscription module needs. Provider may
// be nil when billing is not configured; the routes then degrade instead of
// failing.
type Deps struct {
	Sessions *session.Manager
	Users    user.Store
	Provider billing.Provider
	Config   billing.Config
	Logger   *slog.Logger
}

// Router mounts the billing routes. Mount under an authenticated
// /api/subscription group.
func Router(deps Deps) chi.Router {
	if deps.Sessions == nil {
		panic("subscription: session manager is required")
	}
	if deps.Users == nil {
		panic("subscription: user store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Get("/status", h.status)
	r.Post("/checkout", h.checkout)
	r.Post("/portal", h.portal)
	return r
}

type handlers struct {
	deps Deps
}

type statusPayload struct {
	billing.Status
	Configured bool `json:"configured"`
}

// status reports the user's subscription state. Provider trouble renders as
// inactive rather than an error; the client cannot act on a billing outage.
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	if h.deps.Provider == nil {
		httpx.JSON(w, http.StatusOK, statusPayload{
			Status: billing.Status{Status: "not_configured"},
		})
		return
	}

	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if u.BillingCustomerID == "" {
		httpx.JSON(w, http.StatusOK, statusPayload{Configured: true})
		return
	}

	status, err := h.deps.Provider.SubscriptionStatus(r.Context(), u.BillingCustomerID)
	if err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "subscription status lookup failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("subscription"),
		)
		httpx.JSON(w, http.StatusOK, statusPayload{Configured: true})
		return
	}
	httpx.JSON(w, http.StatusOK, statusPayload{Status: status, Configured: true})
}

type checkoutRequest struct {
	SuccessURL string `json:"successUrl,omitempty"`
}

type checkoutPayload struct {
	URL string `json:"url"`
}

// checkout lazily provisions the billing customer, then creates a hosted
// checkout session for the configured price.
func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	if h.deps.Provider == nil || h.deps.Config.PriceID == "" {
		httpx.Error(w, http.StatusBadRequest, "Billing is not configured")
		return
	}

	var req checkoutRequest
	if err := httpx.Decode(r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = h.deps.Config.SuccessURL
	}

	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	customerID, ok := h.ensureCustomer(w, r, u)
	if !ok {
		return
	}

	link, err := h.deps.Provider.CreateCheckoutLink(r.Context(), billing.CheckoutRequest{
		CustomerID: customerID,
		PriceID:    h.deps.Config.PriceID,
		SuccessURL: successURL,
	})
	if err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "checkout link creation failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("subscription"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}
	httpx.JSON(w, http.StatusOK, checkoutPayload{URL: link.URL})
}

type portalPayload struct {
	URL string `json:"url"`
}

// portal returns a link to the provider's self-service portal. A user who
// never checked out has no billing customer and therefore no portal.
func (h *handlers) portal(w http.ResponseWriter, r *http.Request) {
	if h.deps.Provider == nil {
		httpx.Error(w, http.StatusBadRequest, "Billing is not configured")
		return
	}

	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if u.BillingCustomerID == "" {
		httpx.Error(w, http.StatusNotFound, "No billing account found")
		return
	}

	link, err := h.deps.Provider.CustomerPortalLink(r.Context(), u.BillingCustomerID)
	if err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "portal link creation failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("subscription"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Failed to create portal session")
		return
	}
	httpx.JSON(w, http.StatusOK, portalPayload{URL: link.URL})
}

// ensureCustomer returns the user's billing customer id, creating the
// customer on first checkout and persisting the id on the user record and
// the session snapshot.
func (h *handlers) ensureCustomer(w http.ResponseWriter, r *http.Request, u *user.User) (string, bool) {
	if u.BillingCustomerID != "" {
		return u.BillingCustomerID, true
	}

	customerID, err := h.deps.Provider.EnsureCustomer(r.Context(), u.Email, u.Name)
	if err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "billing customer provisioning failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("subscription"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Failed to create billing account")
		return "", false
	}

	if err := h.deps.Users.SetBillingCustomerID(r.Context(), u.ID, customerID); err != nil {
		h.deps.Logger.ErrorContext(r.Context(), "billing customer id persist failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("subscription"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Failed to create billing account")
		return "", false
	}

	// Best effort; the user record is authoritative.
	sess := session.MustFromContext(r.Context())
	if _, err := h.deps.Sessions.Refresh(r.Context(), sess.ID, &session.IdentityUpdate{BillingCustomerID: &customerID}); err != nil {
		h.deps.Logger.WarnContext(r.Context(), "session snapshot update failed",
			logger.Error(err),
			logger.UserID(u.ID),
			logger.Component("subscription"),
		)
	}

	return customerID, true
}

func (h *handlers) currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	sess := session.MustFromContext(r.Context())

	u, err := h.deps.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return nil, false
		}
		h.deps.Logger.ErrorContext(r.Context(), "user lookup failed",
			logger.Error(err),
			logger.UserID(sess.UserID),
			logger.Component("subscription"),
		)
		httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return u, true
}
