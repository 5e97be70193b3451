package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, intent *PaymentIntent) error
	FindByOrderID(ctx context.Context, orderID snowflake.ID) (*PaymentIntent, error)
	FindByStripeID(ctx context.Context, stripeIntentID string) (*PaymentIntent, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status IntentStatus) error
	// AdvanceStatus moves the intent from one status to another only if
	// it still holds the expected status. Losing the race to a newer
	// delivery is not an error.
	AdvanceStatus(ctx context.Context, id snowflake.ID, from, to IntentStatus) error
	// ClaimForCapture moves the intent out of requires_capture; the
	// loser of a racing capture sees ErrNotCapturable.
	ClaimForCapture(ctx context.Context, id snowflake.ID) error
	MarkCaptured(ctx context.Context, id snowflake.ID, amountCents int64, capturedAt time.Time) error
}
