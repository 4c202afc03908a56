package promotion

import (
	"github.com/giftlane/promos/internal/promotion/repository"
	"github.com/giftlane/promos/internal/promotion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promotion.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
