package domain

import "errors"

var (
	// ErrInvalidLink covers every redemption failure: unknown token,
	// already used, expired, or client binding mismatch. Callers never
	// learn which, so a token cannot be probed.
	ErrInvalidLink = errors.New("invalid or expired magic link")

	ErrInvalidEmail = errors.New("invalid email")
	ErrRateLimited  = errors.New("too many magic link requests")
)
