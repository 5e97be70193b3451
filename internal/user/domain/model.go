// Package domain contains core types for user accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// KYCStatus is the identity verification state of a user.
type KYCStatus string

const (
	KYCUnverified KYCStatus = "unverified"
	KYCPending    KYCStatus = "pending"
	KYCVerified   KYCStatus = "verified"
	KYCFailed     KYCStatus = "failed"
)

// User represents an account identified by email. Accounts are
// passwordless: possession of the email inbox is the credential.
type User struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Email      string       `gorm:"type:text;not null;uniqueIndex"`
	IsVerified bool         `gorm:"column:is_verified;not null;default:false"`
	// IsActive gates identity verification; deactivated accounts keep
	// their rows but cannot act.
	IsActive          bool         `gorm:"column:is_active;not null;default:true"`
	KYCStatus         KYCStatus    `gorm:"column:kyc_status;type:text;not null;default:'unverified'"`
	StripeCustomerID  *string      `gorm:"column:stripe_customer_id;type:text"`
	KYCVerificationID *string      `gorm:"column:kyc_verification_id;type:text"`
	KYCVerifiedAt     *time.Time   `gorm:"column:kyc_verified_at"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
