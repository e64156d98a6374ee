package billing

import (
	"context"
	"time"
)

// CheckoutRequest describes a hosted checkout session to create.
type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
}

// CheckoutLink is a hosted checkout session returned by the provider.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalLink points at the provider's self-service customer portal.
type PortalLink struct {
	URL       string
	CancelURL string
	ExpiresAt time.Time
}

// Status summarizes a customer's subscription state.
type Status struct {
	// IsActive is true when the customer has at least one active or
	// trialing subscription.
	IsActive bool `json:"isActive"`

	// SubscriptionID identifies the subscription the status was derived
	// from. Empty when the customer has none.
	SubscriptionID string `json:"subscriptionId,omitempty"`

	// Status is the provider's raw subscription status.
	Status string `json:"status,omitempty"`
}

// Provider abstracts the billing backend. All methods take the provider's
// own customer id, not the directory user id.
type Provider interface {
	// EnsureCustomer returns the provider customer id for the given email,
	// creating the customer when none exists yet.
	EnsureCustomer(ctx context.Context, email, name string) (string, error)

	// CreateCheckoutLink creates a hosted checkout session.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// CustomerPortalLink returns a link to the customer's self-service
	// portal.
	CustomerPortalLink(ctx context.Context, customerID string) (*PortalLink, error)

	// SubscriptionStatus reports the customer's current subscription state.
	SubscriptionStatus(ctx context.Context, customerID string) (Status, error)

	// CancelSubscriptions cancels all of the customer's active
	// subscriptions, effective immediately. Used during account deletion.
	CancelSubscriptions(ctx context.Context, customerID string) error
}
