package payment

import (
	"github.com/ultracivic/backend/internal/config"
	"github.com/ultracivic/backend/internal/payment/repository"
	"github.com/ultracivic/backend/internal/payment/service"
	"github.com/ultracivic/backend/internal/payment/stripeapi"
	"go.uber.org/fx"
)

func NewStripeClient(cfg config.Config) stripeapi.Client {
	return stripeapi.New(cfg.StripeSecretKey)
}

var Module = fx.Module("payment",
	fx.Provide(NewStripeClient),
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
