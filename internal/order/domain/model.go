// Package domain contains core types for carbon offset orders.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Pricing is fixed: $20.00 per tonne plus a $4.00 flat processing fee,
// and 0.3 governance tokens minted per tonne (stored in thousandths).
const (
	PricePerTonneCents  = 2000
	FlatFeeCents        = 400
	MilliTokensPerTonne = 300

	MinTonnes = 1
	MaxTonnes = 1000
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusKYCPending        Status = "kyc_pending"
	StatusPaymentPending    Status = "payment_pending"
	StatusPaymentAuthorized Status = "payment_authorized"
	StatusProcessing        Status = "processing"
	StatusCompleted         Status = "completed"
	StatusCanceled          Status = "canceled"
	StatusFailed            Status = "failed"
)

// Order records a purchase of CO2 allowance retirement. Amounts are
// minor units (cents); TokensMilli is thousandths of a token.
type Order struct {
	ID                    snowflake.ID `gorm:"primaryKey"`
	UserID                snowflake.ID `gorm:"column:user_id;not null;index"`
	TonnesCO2             int          `gorm:"column:tonnes_co2;not null"`
	SubtotalCents         int64        `gorm:"column:subtotal_cents;not null"`
	FeeCents              int64        `gorm:"column:fee_cents;not null"`
	TotalCents            int64        `gorm:"column:total_cents;not null"`
	TokensMilli           int64        `gorm:"column:tokens_milli;not null"`
	EthAddress            *string      `gorm:"column:eth_address;type:text"`
	Status                Status       `gorm:"type:text;not null;default:'draft';index"`
	StripePaymentIntentID *string      `gorm:"column:stripe_payment_intent_id;type:text;index"`
	CreatedAt             time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
	CompletedAt           *time.Time   `gorm:"column:completed_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// Quote computes the fixed pricing for a tonne count.
func Quote(tonnes int) (subtotalCents, feeCents, totalCents, tokensMilli int64) {
	subtotalCents = int64(tonnes) * PricePerTonneCents
	feeCents = FlatFeeCents
	totalCents = subtotalCents + feeCents
	tokensMilli = int64(tonnes) * MilliTokensPerTonne
	return subtotalCents, feeCents, totalCents, tokensMilli
}
