package order

import (
	"github.com/ultracivic/backend/internal/order/repository"
	"github.com/ultracivic/backend/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
