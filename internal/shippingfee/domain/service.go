package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, fee *ShippingFee) error
	FindByID(ctx context.Context, id snowflake.ID) (*ShippingFee, error)
	FindByRegion(ctx context.Context, region string) (*ShippingFee, error)
	List(ctx context.Context, filter ListRequest) ([]ShippingFee, error)
	Update(ctx context.Context, fee *ShippingFee) error
	Delete(ctx context.Context, id snowflake.ID) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	// Quote resolves the delivery fee for an order in a region.
	Quote(ctx context.Context, region string, orderValue int64) (*QuoteResponse, error)
}

type CreateRequest struct {
	Region        string `json:"region"`
	Fee           int64  `json:"fee"`
	FreeThreshold *int64 `json:"free_threshold"`
	IsActive      *bool  `json:"is_active"`
}

type UpdateRequest struct {
	ID            string  `json:"id"`
	Region        *string `json:"region,omitempty"`
	Fee           *int64  `json:"fee,omitempty"`
	FreeThreshold *int64  `json:"free_threshold,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

type ListRequest struct {
	Region   string
	IsActive *bool
	SortBy   string
	OrderBy  string
}

type Response struct {
	ID            string    `json:"id"`
	Region        string    `json:"region"`
	Fee           int64     `json:"fee"`
	FreeThreshold *int64    `json:"free_threshold,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type QuoteResponse struct {
	Region string `json:"region"`
	Fee    int64  `json:"fee"`
	Free   bool   `json:"free"`
}
