package shippingfee

import (
	"github.com/giftlane/promos/internal/shippingfee/repository"
	"github.com/giftlane/promos/internal/shippingfee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shippingfee.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
