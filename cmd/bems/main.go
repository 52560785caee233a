package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fub-iot/bems/internal/clock"
	"github.com/fub-iot/bems/internal/config"
	"github.com/fub-iot/bems/internal/observability"
	"github.com/fub-iot/bems/internal/server"
	"github.com/fub-iot/bems/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// HTTP surface; pulls in the telemetry and registry domains.
		server.Module,
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
