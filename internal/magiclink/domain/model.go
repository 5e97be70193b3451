// Package domain contains core types for magic link authentication.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TTL is how long a magic link stays redeemable after it is issued.
const TTL = 5 * time.Minute

// MagicLink is a single-use login token bound to a user. The IP and
// user agent that requested the link are recorded so redemption can
// optionally be restricted to the same client.
type MagicLink struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	Token            string       `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	IsUsed           bool         `gorm:"column:is_used;not null;default:false"`
	UsedAt           *time.Time   `gorm:"column:used_at"`
	RequestIP        string       `gorm:"column:request_ip;type:text"`
	RequestUserAgent string       `gorm:"column:request_user_agent;type:text"`
	RedirectURL      string       `gorm:"column:redirect_url;type:text"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (MagicLink) TableName() string { return "magic_links" }
