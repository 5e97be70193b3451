package domain

import "errors"

var (
	ErrIntentNotFound  = errors.New("payment intent not found")
	ErrOrderNotPayable = errors.New("order is not payable")
	ErrNotCapturable   = errors.New("payment intent is not capturable")
)
