// Package account serves the profile API and account deletion.
package account

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/launchbase/launchbase/pkg/httpx"
	"github.com/launchbase/launchbase/pkg/logger"
	"github.com/launchbase/launchbase/pkg/session"
	"github.com/launchbase/launchbase/pkg/user"
)

const maxProfileFieldLength = 256

// Deps holds the collaborators the account module needs.
type Deps struct {
	Sessions *session.Manager
	Users    user.Store
	Deletion *DeletionService
	Logger   *slog.Logger
}

// Router mounts the profile and account routes. Mount under an
// authenticated /api group.
func Router(deps Deps) chi.Router {
	if deps.Sessions == nil {
		panic("account: session manager is required")
	}
	if deps.Users == nil {
		panic("account: user store is required")
	}
	if deps.Deletion == nil {
		panic("account: deletion service is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Get("/me", h.getMe)
	r.Patch("/me", h.patchMe)
	r.Delete("/account", h.deleteAccount)
	return r
}

type handlers struct {
	deps Deps
}

// getMe returns the signed-in user's directory record.
func (h *handlers) getMe(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	u, err := h.deps.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, r, "user lookup failed", err, sess.UserID)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

// patchMe applies a partial profile update and returns the updated record.
func (h *handlers) patchMe(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var upd user.ProfileUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if upd.IsEmpty() {
		httpx.Error(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if msg, ok := validateProfileUpdate(&upd); !ok {
		httpx.Error(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.deps.Users.Update(r.Context(), sess.UserID, upd); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, r, "profile update failed", err, sess.UserID)
		return
	}

	u, err := h.deps.Users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		h.internalError(w, r, "user lookup failed", err, sess.UserID)
		return
	}

	// Keep the session's identity snapshot in step when the display name
	// changed. Best effort; the directory record is authoritative.
	if upd.Name != nil {
		if _, err := h.deps.Sessions.Refresh(r.Context(), sess.ID, &session.IdentityUpdate{UserName: upd.Name}); err != nil {
			h.deps.Logger.WarnContext(r.Context(), "session snapshot update failed",
				logger.Error(err),
				logger.UserID(sess.UserID),
				logger.Component("account"),
			)
		}
	}

	httpx.JSON(w, http.StatusOK, u)
}

// deleteAccount runs the orchestrated deletion, then kills the session.
func (h *handlers) deleteAccount(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	if err := h.deps.Deletion.DeleteAccount(r.Context(), sess.UserID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			httpx.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, r, "account deletion failed", err, sess.UserID)
		return
	}

	h.deps.Sessions.Destroy(r.Context(), sess.ID)
	h.deps.Sessions.Codec().Clear(w)
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, msg string, err error, userID string) {
	h.deps.Logger.ErrorContext(r.Context(), msg,
		logger.Error(err),
		logger.UserID(userID),
		logger.Component("account"),
	)
	httpx.Error(w, http.StatusInternalServerError, "Internal server error")
}

// validateProfileUpdate enforces basic field constraints before the update
// reaches the store.
func validateProfileUpdate(upd *user.ProfileUpdate) (string, bool) {
	check := func(name string, v *string, allowEmpty bool) (string, bool) {
		if v == nil {
			return "", true
		}
		trimmed := strings.TrimSpace(*v)
		if !allowEmpty && trimmed == "" {
			return name + " cannot be empty", false
		}
		if len(trimmed) > maxProfileFieldLength {
			return name + " is too long", false
		}
		*v = trimmed
		return "", true
	}

	if msg, ok := check("name", upd.Name, false); !ok {
		return msg, false
	}
	if msg, ok := check("givenName", upd.GivenName, true); !ok {
		return msg, false
	}
	if msg, ok := check("familyName", upd.FamilyName, true); !ok {
		return msg, false
	}
	if msg, ok := check("profilePicture", upd.ProfilePicture, true); !ok {
		return msg, false
	}
	return "", true
}
