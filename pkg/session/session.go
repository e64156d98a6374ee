package session

import (
	"time"
)

// Identity is the denormalized snapshot of user identity stored on a session.
// It exists so that request handling can display who is signed in without a
// user-directory lookup on every request.
type Identity struct {
	UserID            string
	UserEmail         string
	UserName          string
	BillingCustomerID string
}

// IdentityUpdate carries optional replacements for the identity snapshot
// fields. Nil fields are left untouched. The user reference itself is
// immutable for the lifetime of a session.
type IdentityUpdate struct {
	UserEmail         *string
	UserName          *string
	BillingCustomerID *string
}

// Session is a server-side record proving a user authenticated, referenced by
// an opaque id stored client-side as a cookie.
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	UserEmail         string    `json:"user_email"`
	UserName          string    `json:"user_name"`
	BillingCustomerID string    `json:"billing_customer_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

// NewSession builds a complete session record with a sliding expiry window.
func NewSession(id string, identity Identity, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:                id,
		UserID:            identity.UserID,
		UserEmail:         identity.UserEmail,
		UserName:          identity.UserName,
		BillingCustomerID: identity.BillingCustomerID,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
		LastActivityAt:    now,
	}
}

// IsExpired reports whether the session has passed its expiry. An expired
// record is logically dead even if the store has not reclaimed it yet.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// Identity returns the identity snapshot carried by the session.
func (s *Session) Identity() Identity {
	if s == nil {
		return Identity{}
	}
	return Identity{
		UserID:            s.UserID,
		UserEmail:         s.UserEmail,
		UserName:          s.UserName,
		BillingCustomerID: s.BillingCustomerID,
	}
}

// apply merges the non-nil snapshot fields into the session.
func (s *Session) apply(upd *IdentityUpdate) {
	if s == nil || upd == nil {
		return
	}
	if upd.UserEmail != nil {
		s.UserEmail = *upd.UserEmail
	}
	if upd.UserName != nil {
		s.UserName = *upd.UserName
	}
	if upd.BillingCustomerID != nil {
		s.BillingCustomerID = *upd.BillingCustomerID
	}
}
