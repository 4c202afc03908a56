package domain

import (
	"context"
	"time"

	"github.com/giftlane/promos/pkg/db/pagination"
)

type Service interface {
	// Validate checks whether a code may be applied to an order right now.
	// Read-only: safe to call repeatedly for checkout previews.
	Validate(ctx context.Context, req ValidateRequest) (*ValidationResult, error)

	// Redeem consumes one usage slot at order placement. At most one
	// successful redemption per call; a lost race against a concurrent
	// redemption reports UsageLimitReached, identical to a plain limit
	// violation.
	Redeem(ctx context.Context, req ValidateRequest) (*ValidationResult, error)

	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ValidateRequest struct {
	Code       string `json:"code"`
	OrderValue int64  `json:"order_value"`
}

type CreateRequest struct {
	Code              string         `json:"code"`
	Title             string         `json:"title"`
	Type              Type           `json:"type"`
	Value             float64        `json:"value"`
	MinOrderValue     int64          `json:"min_order_value"`
	MaxDiscountAmount *int64         `json:"max_discount_amount"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           *time.Time     `json:"end_date"`
	UsageLimit        *int64         `json:"usage_limit"`
	IsActive          *bool          `json:"is_active"`
	Metadata          map[string]any `json:"metadata"`
}

// UpdateRequest patches mutable fields. Code and UsageCount are immutable
// here: the code would orphan outstanding shares, the count is owned by the
// redemption path.
type UpdateRequest struct {
	ID                string     `json:"id"`
	Title             *string    `json:"title,omitempty"`
	Type              *Type      `json:"type,omitempty"`
	Value             *float64   `json:"value,omitempty"`
	MinOrderValue     *int64     `json:"min_order_value,omitempty"`
	MaxDiscountAmount *int64     `json:"max_discount_amount,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	UsageLimit        *int64     `json:"usage_limit,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
}

type ListRequest struct {
	Code     string
	Type     Type
	Status   Status
	IsActive *bool
	SortBy   string
	OrderBy  string

	Page pagination.Pagination
}

type ListResponse struct {
	Promotions []Response          `json:"promotions"`
	PageInfo   pagination.PageInfo `json:"page_info"`
}

type Response struct {
	ID                string         `json:"id"`
	Code              string         `json:"code"`
	Title             string         `json:"title"`
	Type              Type           `json:"type"`
	Value             float64        `json:"value"`
	MinOrderValue     int64          `json:"min_order_value"`
	MaxDiscountAmount *int64         `json:"max_discount_amount,omitempty"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           *time.Time     `json:"end_date,omitempty"`
	UsageLimit        *int64         `json:"usage_limit,omitempty"`
	UsageCount        int64          `json:"usage_count"`
	Remaining         *int64         `json:"remaining,omitempty"`
	IsActive          bool           `json:"is_active"`
	Status            Status         `json:"status"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
