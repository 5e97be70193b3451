package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateOrderInput struct {
	UserID     snowflake.ID
	TonnesCO2  int
	EthAddress string
}

type Service interface {
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)
	Get(ctx context.Context, userID, orderID snowflake.ID) (*Order, error)
	List(ctx context.Context, userID snowflake.ID) ([]*Order, error)
}
