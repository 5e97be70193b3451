package session

import (
	"github.com/ultracivic/backend/internal/session/repository"
	"github.com/ultracivic/backend/internal/session/service"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(NewManager),
)
