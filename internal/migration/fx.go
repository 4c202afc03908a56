package migration

import (
	"github.com/giftlane/promos/internal/config"
	promotiondomain "github.com/giftlane/promos/internal/promotion/domain"
	shippingfeedomain "github.com/giftlane/promos/internal/shippingfee/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if !cfg.MigrationsEnabled {
			return nil
		}

		// Versioned SQL migrations target postgres; the sqlite and mysql
		// development paths derive the schema from the models.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&promotiondomain.Promotion{},
			&shippingfeedomain.ShippingFee{},
		)
	}),
)
