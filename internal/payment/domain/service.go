package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type AuthorizeResult struct {
	Intent       *PaymentIntent
	ClientSecret string
}

type Service interface {
	// Authorize creates (or returns) the manual-capture payment intent
	// for an order and moves the order into payment_pending.
	Authorize(ctx context.Context, userID, orderID snowflake.ID) (*AuthorizeResult, error)
	// Capture charges the authorized amount for one order. The order
	// ends in processing on success or failed on a capture error.
	Capture(ctx context.Context, orderID snowflake.ID) error
	// ApplyStripeStatus records a status reported by a Stripe webhook
	// and advances the order accordingly.
	ApplyStripeStatus(ctx context.Context, stripeIntentID string, status IntentStatus) error
}
