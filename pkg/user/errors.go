package user

import "errors"

var (
	// ErrUserNotFound indicates no user exists for the given key.
	ErrUserNotFound = errors.New("user: not found")

	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("user: email already registered")

	// ErrStorageFailure indicates the directory backend was unreachable or
	// errored.
	ErrStorageFailure = errors.New("user: storage failure")
)
