package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, session *Session) error
	FindByToken(ctx context.Context, token string) (*Session, error)
	UpdateLastSeen(ctx context.Context, id snowflake.ID, lastSeen time.Time) error
	UpdateExpiry(ctx context.Context, id snowflake.ID, expiresAt time.Time) error
	DeleteByToken(ctx context.Context, token string) error
	// PurgeForUser deletes the user's expired or inactive sessions.
	PurgeForUser(ctx context.Context, userID snowflake.ID, cutoff time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID snowflake.ID) (int64, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
