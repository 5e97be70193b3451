package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, link *MagicLink) error
	FindByToken(ctx context.Context, token string) (*MagicLink, error)
	// DeleteUnusedByUser removes a user's outstanding links so only the
	// most recently requested one redeems.
	DeleteUnusedByUser(ctx context.Context, userID snowflake.ID) error
	// MarkUsed flips is_used exactly once. Returns ErrInvalidLink when
	// another redemption got there first.
	MarkUsed(ctx context.Context, id snowflake.ID, usedAt time.Time) error
	Delete(ctx context.Context, id snowflake.ID) error
	// DeleteExpired removes links past cutoff and reports how many.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
