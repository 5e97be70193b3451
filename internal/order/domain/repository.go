package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id snowflake.ID) (*Order, error)
	FindByUserAndID(ctx context.Context, userID, id snowflake.ID) (*Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*Order, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]*Order, error)
	ListByUserAndStatus(ctx context.Context, userID snowflake.ID, status Status) ([]*Order, error)
	// Transition moves an order from one status to another atomically.
	// Returns ErrInvalidTransition when the order is no longer in from.
	Transition(ctx context.Context, id snowflake.ID, from, to Status) error
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
}
