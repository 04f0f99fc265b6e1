package domain

import "errors"

var (
	// ErrConfiguration marks a dispatch attempted with incomplete required configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup for a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited marks a relay rejected by the outbound rate limit.
	ErrRateLimited = errors.New("rate limited")
)
