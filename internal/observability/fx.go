package observability

import (
	"github.com/giftlane/promos/internal/config"
	"github.com/giftlane/promos/internal/observability/logger"
	"github.com/giftlane/promos/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		metrics.NewRegistry,
		metrics.NewHTTPMetrics,
		metrics.NewPromotionMetrics,
	),
)

func provideLoggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
		Version:     cfg.AppVersion,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Debug:       cfg.IsDevelopment(),
	}
}
