package oauth

import "errors"

var (
	// ErrInvalidState indicates the state token is unknown, expired or
	// already consumed.
	ErrInvalidState = errors.New("oauth: invalid or expired state")

	// ErrStateNotFound indicates the state store has no such token.
	ErrStateNotFound = errors.New("oauth: state not found")

	// ErrInvalidCode indicates the authorization code exchange failed.
	ErrInvalidCode = errors.New("oauth: invalid authorization code")

	// ErrUnverifiedEmail indicates the provider account email is not verified.
	ErrUnverifiedEmail = errors.New("oauth: provider email is not verified")

	// ErrNoEmail indicates the provider returned no usable email address.
	ErrNoEmail = errors.New("oauth: no email from provider")
)
