package main

import (
	"github.com/arenaworks/prizepay/internal/clock"
	"github.com/arenaworks/prizepay/internal/config"
	"github.com/arenaworks/prizepay/internal/lock"
	"github.com/arenaworks/prizepay/internal/migration"
	"github.com/arenaworks/prizepay/internal/observability"
	"github.com/arenaworks/prizepay/internal/payment"
	"github.com/arenaworks/prizepay/internal/processor"
	"github.com/arenaworks/prizepay/internal/resolver"
	"github.com/arenaworks/prizepay/internal/sequence"
	"github.com/arenaworks/prizepay/internal/server"
	"github.com/arenaworks/prizepay/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		sequence.Module,
		payment.Module,
		resolver.Module,
		lock.Module,
		processor.Module,

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
