package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/clock"
	"github.com/giftlane/promos/internal/config"
	"github.com/giftlane/promos/internal/migration"
	"github.com/giftlane/promos/internal/observability"
	"github.com/giftlane/promos/internal/promotion"
	"github.com/giftlane/promos/internal/ratelimit"
	"github.com/giftlane/promos/internal/seed"
	"github.com/giftlane/promos/internal/server"
	"github.com/giftlane/promos/internal/shippingfee"
	"github.com/giftlane/promos/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,

		promotion.Module,
		shippingfee.Module,
		ratelimit.Module,

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
