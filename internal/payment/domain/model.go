// Package domain contains core types for payment authorization.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// IntentStatus mirrors Stripe's payment intent status vocabulary.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"

	// IntentPaymentFailed records a payment_failed webhook; Stripe
	// itself rolls the intent back to requires_payment_method.
	IntentPaymentFailed IntentStatus = "payment_failed"
)

// Rank orders the provider vocabulary along the intent lifecycle.
// Mirrored webhook statuses may only move an intent to a higher rank;
// terminal states share the top so none replaces another.
func (s IntentStatus) Rank() int {
	switch s {
	case IntentRequiresPaymentMethod:
		return 1
	case IntentRequiresConfirmation:
		return 2
	case IntentRequiresAction:
		return 3
	case IntentRequiresCapture:
		return 4
	case IntentProcessing:
		return 5
	case IntentSucceeded, IntentCanceled, IntentPaymentFailed:
		return 6
	default:
		return 0
	}
}

// PaymentIntent is our record of a Stripe payment intent created for an
// order. The card is authorized only; capture waits for KYC.
type PaymentIntent struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	OrderID        snowflake.ID      `gorm:"column:order_id;not null;uniqueIndex"`
	UserID         snowflake.ID      `gorm:"column:user_id;not null;index"`
	StripeIntentID string            `gorm:"column:stripe_intent_id;type:text;not null;uniqueIndex"`
	AmountCents    int64             `gorm:"column:amount_cents;not null"`
	Currency       string            `gorm:"type:text;not null;default:'usd'"`
	Status         IntentStatus      `gorm:"type:text;not null"`
	ClientSecret   string            `gorm:"column:client_secret;type:text"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CapturedAt     *time.Time        `gorm:"column:captured_at"`
	CapturedCents  *int64            `gorm:"column:captured_cents"`
	CreatedAt      time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentIntent) TableName() string { return "payment_intents" }
