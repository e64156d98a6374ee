package user

import "context"

// Store defines persistence for user-directory records.
type Store interface {
	// Create inserts a new user. Fails with ErrEmailTaken when the email is
	// already registered.
	Create(ctx context.Context, u *User) error

	// FindByID returns the user or ErrUserNotFound.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the user for a normalized email or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update applies the non-nil profile fields. No-op when the update is
	// empty. ErrUserNotFound when the user does not exist.
	Update(ctx context.Context, id string, upd ProfileUpdate) error

	// SetBillingCustomerID records the billing provider's customer id.
	SetBillingCustomerID(ctx context.Context, id, customerID string) error

	// Delete removes the user record. ErrUserNotFound when absent.
	Delete(ctx context.Context, id string) error
}
