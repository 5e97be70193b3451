package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/ultracivic/backend/internal/user/domain"
	"gorm.io/datatypes"
)

type CreateInput struct {
	UserID    snowflake.ID
	IPAddress string
	UserAgent string
	Data      datatypes.JSONMap
}

type CreateResult struct {
	Session *Session
	Token   string
}

type ResolveResult struct {
	Session *Session
	User    *userdomain.User
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*CreateResult, error)
	// Resolve returns the live session for token. Expired or unknown
	// tokens resolve to ErrSessionNotFound; an expired row is deleted on
	// the way out.
	Resolve(ctx context.Context, token string) (*ResolveResult, error)
	Touch(ctx context.Context, session *Session) error
	// Extend pushes the session expiry ttl from now; a non-positive ttl
	// means the default lifetime.
	Extend(ctx context.Context, session *Session, ttl time.Duration) error
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID snowflake.ID) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
}
