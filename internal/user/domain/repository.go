package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// GetOrCreateByEmail returns the existing user for email or inserts a
	// new unverified one. Safe under concurrent calls for the same email.
	GetOrCreateByEmail(ctx context.Context, id snowflake.ID, email string) (*User, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	MarkVerified(ctx context.Context, id snowflake.ID) error
}
