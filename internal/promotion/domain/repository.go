package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ListFilter narrows and orders a promotion listing.
type ListFilter struct {
	Code     string
	Type     Type
	IsActive *bool

	// Status filters on the derived lifecycle state, evaluated against Now
	// so the predicate matches what the deriver would report.
	Status Status
	Now    time.Time

	SortBy  string
	OrderBy string

	// AfterID and Limit implement cursor pagination over descending ids.
	AfterID snowflake.ID
	Limit   int
}

type Repository interface {
	Create(ctx context.Context, p *Promotion) error
	FindByID(ctx context.Context, id snowflake.ID) (*Promotion, error)
	FindByCode(ctx context.Context, code string) (*Promotion, error)
	List(ctx context.Context, filter ListFilter) ([]Promotion, error)
	Update(ctx context.Context, p *Promotion) error

	// Delete removes the promotion only while it has no recorded
	// redemptions; it reports whether a row was deleted.
	Delete(ctx context.Context, id snowflake.ID) (bool, error)

	// IncrementUsageIfBelowLimit consumes one usage slot in a single
	// conditional write: the count moves only while it is below the limit
	// (or the limit is unset). It reports false when the limit was already
	// reached, including by a racing caller. This is the only write path
	// for usage_count.
	IncrementUsageIfBelowLimit(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
}
