package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleProvider implements Provider on the Paddle Billing API.
type PaddleProvider struct {
	client *paddle.SDK
	config Config
}

// NewPaddleProvider creates a Paddle-backed billing provider.
func NewPaddleProvider(config Config) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrNotConfigured
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{client: client, config: config}, nil
}

// EnsureCustomer looks up the Paddle customer by email and creates one when
// none exists.
func (p *PaddleProvider) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	if email == "" {
		return "", errors.New("billing: email is required")
	}

	existing, err := p.findCustomerByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	req := &paddle.CreateCustomerRequest{Email: email}
	if name != "" {
		req.Name = paddle.PtrTo(name)
	}
	customer, err := p.client.CustomersClient.CreateCustomer(ctx, req)
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}
	return customer.ID, nil
}

func (p *PaddleProvider) findCustomerByEmail(ctx context.Context, email string) (string, error) {
	res, err := p.client.CustomersClient.ListCustomers(ctx, &paddle.ListCustomersRequest{
		Email: []string{email},
	})
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}

	var customerID string
	err = res.Iter(ctx, func(c *paddle.Customer) (bool, error) {
		customerID = c.ID
		return false, nil
	})
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}
	return customerID, nil
}

// CreateCheckoutLink creates a hosted checkout transaction for the
// configured price.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, ErrPriceRequired
	}
	if req.CustomerID == "" {
		return nil, ErrCustomerRequired
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomerID: paddle.PtrTo(req.CustomerID),
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, errors.New("billing: no checkout URL returned from paddle")
	}

	return &CheckoutLink{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// CustomerPortalLink creates a customer portal session and returns its
// overview URL.
func (p *PaddleProvider) CustomerPortalLink(ctx context.Context, customerID string) (*PortalLink, error) {
	if customerID == "" {
		return nil, ErrCustomerRequired
	}

	portalSession, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: customerID,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	link := &PortalLink{
		URL:       portalSession.URLs.General.Overview,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if len(portalSession.URLs.Subscriptions) > 0 {
		link.CancelURL = portalSession.URLs.Subscriptions[0].CancelSubscription
	}

	if link.URL == "" {
		return nil, errors.New("billing: no portal URL returned from paddle")
	}
	return link, nil
}

// SubscriptionStatus reports the customer's subscription state. A customer
// with no subscriptions is simply inactive.
func (p *PaddleProvider) SubscriptionStatus(ctx context.Context, customerID string) (Status, error) {
	if customerID == "" {
		return Status{}, ErrCustomerRequired
	}

	subs, err := p.listSubscriptions(ctx, customerID)
	if err != nil {
		return Status{}, err
	}

	var status Status
	for _, sub := range subs {
		s := string(sub.Status)
		if status.SubscriptionID == "" {
			status.SubscriptionID = sub.ID
			status.Status = s
		}
		if isActiveStatus(s) {
			return Status{IsActive: true, SubscriptionID: sub.ID, Status: s}, nil
		}
	}
	return status, nil
}

// CancelSubscriptions cancels every cancellable subscription the customer
// has, effective immediately.
func (p *PaddleProvider) CancelSubscriptions(ctx context.Context, customerID string) error {
	if customerID == "" {
		return ErrCustomerRequired
	}

	subs, err := p.listSubscriptions(ctx, customerID)
	if err != nil {
		return err
	}

	var errs []error
	for _, sub := range subs {
		if !isCancellableStatus(string(sub.Status)) {
			continue
		}
		_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
			SubscriptionID: sub.ID,
			EffectiveFrom:  paddle.PtrTo(paddle.EffectiveFromImmediately),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("cancel subscription %s: %w", sub.ID, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrProviderFailure}, errs...)...)
	}
	return nil
}

func (p *PaddleProvider) listSubscriptions(ctx context.Context, customerID string) ([]*paddle.Subscription, error) {
	res, err := p.client.SubscriptionsClient.ListSubscriptions(ctx, &paddle.ListSubscriptionsRequest{
		CustomerID: []string{customerID},
	})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	var subs []*paddle.Subscription
	err = res.Iter(ctx, func(sub *paddle.Subscription) (bool, error) {
		subs = append(subs, sub)
		return true, nil
	})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	return subs, nil
}

func isActiveStatus(status string) bool {
	switch strings.ToLower(status) {
	case "active", "trialing":
		return true
	default:
		return false
	}
}

func isCancellableStatus(status string) bool {
	switch strings.ToLower(status) {
	case "active", "trialing", "past_due", "paused":
		return true
	default:
		return false
	}
}

var _ Provider = (*PaddleProvider)(nil)
