package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ShippingFee is a per-region delivery fee row maintained by the admin UI.
type ShippingFee struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Region string `gorm:"type:text;not null;uniqueIndex"`
	Fee    int64  `gorm:"not null"`

	// FreeThreshold waives the fee for orders at or above it, nil = never.
	FreeThreshold *int64 `gorm:"column:free_threshold"`

	IsActive bool `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ShippingFee) TableName() string { return "shipping_fees" }

var (
	ErrNotFound             = errors.New("shipping fee not found")
	ErrRegionExists         = errors.New("shipping fee region already exists")
	ErrInvalidID            = errors.New("invalid shipping fee id")
	ErrInvalidRegion        = errors.New("invalid shipping fee region")
	ErrInvalidFee           = errors.New("invalid shipping fee amount")
	ErrInvalidFreeThreshold = errors.New("invalid free shipping threshold")
)

func (f *ShippingFee) Validate() error {
	if strings.TrimSpace(f.Region) == "" {
		return ErrInvalidRegion
	}
	if f.Fee < 0 {
		return ErrInvalidFee
	}
	if f.FreeThreshold != nil && *f.FreeThreshold < 0 {
		return ErrInvalidFreeThreshold
	}
	return nil
}

// FeeFor returns the fee owed for an order of the given value.
func (f *ShippingFee) FeeFor(orderValue int64) int64 {
	if f.FreeThreshold != nil && orderValue >= *f.FreeThreshold {
		return 0
	}
	return f.Fee
}
