package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/config"
	promotiondomain "github.com/giftlane/promos/internal/promotion/domain"
	shippingfeedomain "github.com/giftlane/promos/internal/shippingfee/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnsureDemoData inserts a few sample promotions and shipping fees the first
// time a development database comes up. It is a no-op once any row exists.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&promotiondomain.Promotion{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := seedPromotions(tx, node); err != nil {
				return err
			}
			log.Info("seeded demo promotions")
		}

		if err := tx.Model(&shippingfeedomain.ShippingFee{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := seedShippingFees(tx, node); err != nil {
				return err
			}
			log.Info("seeded demo shipping fees")
		}
		return nil
	})
}

func seedPromotions(tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	nextMonth := now.AddDate(0, 1, 0)
	welcomeLimit := int64(1000)
	welcomeCap := int64(50000)

	promos := []promotiondomain.Promotion{
		{
			ID:                node.Generate(),
			Code:              "WELCOME10",
			Title:             "10% off your first order",
			Type:              promotiondomain.TypePercentage,
			Value:             10,
			MinOrderValue:     100000,
			MaxDiscountAmount: &welcomeCap,
			StartDate:         now,
			EndDate:           &nextMonth,
			UsageLimit:        &welcomeLimit,
			IsActive:          true,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			ID:            node.Generate(),
			Code:          "FREESHIP30",
			Title:         "30,000 off shipping",
			Type:          promotiondomain.TypeFixedAmount,
			Value:         30000,
			MinOrderValue: 200000,
			StartDate:     now,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	return tx.Create(&promos).Error
}

func seedShippingFees(tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	freeFrom := int64(500000)

	fees := []shippingfeedomain.ShippingFee{
		{
			ID:            node.Generate(),
			Region:        "Inner City",
			Fee:           20000,
			FreeThreshold: &freeFrom,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:        node.Generate(),
			Region:    "Nationwide",
			Fee:       35000,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	return tx.Create(&fees).Error
}

var Module = fx.Module("seed",
	fx.Invoke(func(db *gorm.DB, node *snowflake.Node, cfg config.Config, log *zap.Logger) error {
		if !cfg.SeedDemoData {
			return nil
		}
		return EnsureDemoData(db, node, log)
	}),
)
