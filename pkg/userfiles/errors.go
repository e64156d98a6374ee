package userfiles

import "errors"

var (
	// ErrInvalidConfig indicates the bucket or region is missing.
	ErrInvalidConfig = errors.New("userfiles: bucket and region are required")

	// ErrFailedToLoadConfig indicates the AWS SDK configuration could not
	// be assembled.
	ErrFailedToLoadConfig = errors.New("userfiles: failed to load aws config")

	// ErrInvalidUserID indicates the user id cannot form a safe object
	// prefix.
	ErrInvalidUserID = errors.New("userfiles: invalid user id")
)
