package billing

import "errors"

var (
	// ErrNotConfigured indicates billing is disabled because no provider
	// credentials were supplied.
	ErrNotConfigured = errors.New("billing: provider not configured")

	// ErrCustomerRequired indicates an operation needs a provider customer
	// id that the caller did not supply.
	ErrCustomerRequired = errors.New("billing: customer id is required")

	// ErrPriceRequired indicates checkout was requested without a price id.
	ErrPriceRequired = errors.New("billing: price id is required")

	// ErrProviderFailure wraps errors returned by the billing backend.
	ErrProviderFailure = errors.New("billing: provider request failed")
)
