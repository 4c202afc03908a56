package domain

import (
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Type discriminates how a promotion's Value is interpreted.
type Type string

const (
	// TypePercentage applies Value as a percent of the order value.
	TypePercentage Type = "PERCENTAGE"
	// TypeFixedAmount applies Value as a flat amount in minor currency units.
	TypeFixedAmount Type = "FIXED_AMOUNT"
)

func (t Type) Valid() bool {
	return t == TypePercentage || t == TypeFixedAmount
}

// Status is the derived lifecycle state of a promotion. It is computed from
// the record and the current time on every query, never stored.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusInactive Status = "inactive"
)

// Promotion is a discount-code record. All currency amounts are integer
// minor units; Value is a percent for percentage promotions and a minor-unit
// amount for fixed-amount promotions.
type Promotion struct {
	ID snowflake.ID `gorm:"primaryKey"`

	// Code is unique and immutable after creation; changing it would orphan
	// outstanding shares of the code.
	Code  string `gorm:"type:text;not null;uniqueIndex"`
	Title string `gorm:"type:text;not null"`

	Type  Type    `gorm:"type:text;not null"`
	Value float64 `gorm:"type:numeric(12,2);not null"`

	MinOrderValue     int64  `gorm:"column:min_order_value;not null;default:0"`
	MaxDiscountAmount *int64 `gorm:"column:max_discount_amount"`

	StartDate time.Time  `gorm:"column:start_date;not null"`
	EndDate   *time.Time `gorm:"column:end_date"`

	UsageLimit *int64 `gorm:"column:usage_limit"`
	UsageCount int64  `gorm:"column:usage_count;not null;default:0"`

	IsActive bool `gorm:"column:is_active;not null;default:true"`

	Metadata datatypes.JSONMap `gorm:"column:metadata"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Promotion) TableName() string { return "promotions" }

// NormalizeCode canonicalizes a promo code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Status derives the lifecycle state at the given instant. First match wins:
// the kill switch beats the date window, upcoming beats expired.
func (p *Promotion) Status(now time.Time) Status {
	switch {
	case !p.IsActive:
		return StatusInactive
	case p.StartDate.After(now):
		return StatusUpcoming
	case p.EndDate != nil && p.EndDate.Before(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// Discount computes the discount in minor units for an order that already
// qualifies (the caller checks MinOrderValue first). Percentage discounts
// round down so the customer is never over-discounted by a fraction of a
// unit. The result is always within [0, orderValue].
func (p *Promotion) Discount(orderValue int64) int64 {
	if orderValue <= 0 {
		return 0
	}

	var raw int64
	switch p.Type {
	case TypePercentage:
		raw = int64(math.Floor(float64(orderValue) * p.Value / 100))
	case TypeFixedAmount:
		raw = int64(p.Value)
	default:
		return 0
	}

	if raw > orderValue {
		raw = orderValue
	}
	if raw < 0 {
		raw = 0
	}
	if p.MaxDiscountAmount != nil && *p.MaxDiscountAmount > 0 && raw > *p.MaxDiscountAmount {
		raw = *p.MaxDiscountAmount
	}
	return raw
}

// Remaining reports how many usage slots are left, or nil when unlimited.
func (p *Promotion) Remaining() *int64 {
	if p.UsageLimit == nil {
		return nil
	}
	left := *p.UsageLimit - p.UsageCount
	if left < 0 {
		left = 0
	}
	return &left
}

// Validate checks field invariants for create/update.
func (p *Promotion) Validate() error {
	if p.Code == "" {
		return ErrInvalidCode
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Value < 0 {
		return ErrInvalidValue
	}
	if p.Type == TypePercentage && p.Value > 100 {
		return ErrInvalidValue
	}
	if p.Type == TypeFixedAmount && p.Value != math.Trunc(p.Value) {
		// Fixed amounts are whole minor units.
		return ErrInvalidValue
	}
	if p.MinOrderValue < 0 {
		return ErrInvalidMinOrderValue
	}
	if p.MaxDiscountAmount != nil && *p.MaxDiscountAmount < 0 {
		return ErrInvalidMaxDiscount
	}
	if p.EndDate != nil && !p.EndDate.After(p.StartDate) {
		return ErrInvalidDateRange
	}
	if p.UsageLimit != nil && *p.UsageLimit <= 0 {
		return ErrInvalidUsageLimit
	}
	return nil
}
