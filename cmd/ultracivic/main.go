package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/config"
	"github.com/ultracivic/backend/internal/logger"
	"github.com/ultracivic/backend/internal/migration"
	"github.com/ultracivic/backend/internal/scheduler"
	"github.com/ultracivic/backend/internal/server"
	"github.com/ultracivic/backend/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema before anything touches the database
		migration.Module,

		// HTTP surface and the domains behind it
		server.Module,

		// Background sweeps
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
