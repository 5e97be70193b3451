package magiclink

import (
	"github.com/ultracivic/backend/internal/magiclink/repository"
	"github.com/ultracivic/backend/internal/magiclink/service"
	"go.uber.org/fx"
)

var Module = fx.Module("magiclink",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
