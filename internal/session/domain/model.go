// Package domain contains core types for login sessions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TTL is the session lifetime; Extend resets the window.
const TTL = 7 * 24 * time.Hour

// Session is a persisted login session. The token is an opaque random
// lookup key handed to the browser as a cookie.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	Token     string       `gorm:"type:text;not null;uniqueIndex"`
	UserAgent string       `gorm:"column:user_agent;type:text"`
	IPAddress string       `gorm:"column:ip_address;type:text"`
	ExpiresAt time.Time    `gorm:"column:expires_at;not null;index"`
	// IsActive allows a session to be disabled without deleting its row;
	// inactive rows never resolve and are purged on the user's next login.
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// Data holds opaque per-session state such as preferences.
	Data       datatypes.JSONMap `gorm:"column:session_data;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt time.Time         `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
