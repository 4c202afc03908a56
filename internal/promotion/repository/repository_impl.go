package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/promotion/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *domain.Promotion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Promotion, error) {
	var p domain.Promotion
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	var p domain.Promotion
	err := r.db.WithContext(ctx).
		Where("code = ?", domain.NormalizeCode(code)).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var sortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"start_date": true,
	"code":       true,
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Promotion, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Promotion{})

	if filter.Code != "" {
		stmt = stmt.Where("code = ?", domain.NormalizeCode(filter.Code))
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Status != "" && !filter.Now.IsZero() {
		stmt = applyStatusFilter(stmt, filter.Status, filter.Now)
	}
	if filter.AfterID != 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}

	order := "id DESC"
	if sortColumns[filter.SortBy] {
		direction := "ASC"
		if strings.EqualFold(filter.OrderBy, "desc") {
			direction = "DESC"
		}
		order = fmt.Sprintf("%s %s, id DESC", filter.SortBy, direction)
	}
	stmt = stmt.Order(order)

	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []domain.Promotion
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// applyStatusFilter translates the derived status into the same predicate
// the deriver evaluates, anchored at now.
func applyStatusFilter(stmt *gorm.DB, status domain.Status, now time.Time) *gorm.DB {
	switch status {
	case domain.StatusInactive:
		return stmt.Where("is_active = ?", false)
	case domain.StatusUpcoming:
		return stmt.Where("is_active = ? AND start_date > ?", true, now)
	case domain.StatusExpired:
		return stmt.Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, now)
	case domain.StatusActive:
		return stmt.Where("is_active = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)", true, now, now)
	default:
		return stmt
	}
}

func (r *repository) Update(ctx context.Context, p *domain.Promotion) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE promotions
		 SET title = ?, type = ?, value = ?, min_order_value = ?, max_discount_amount = ?,
		     start_date = ?, end_date = ?, usage_limit = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title,
		p.Type,
		p.Value,
		p.MinOrderValue,
		p.MaxDiscountAmount,
		p.StartDate,
		p.EndDate,
		p.UsageLimit,
		p.IsActive,
		p.UpdatedAt,
		p.ID,
	).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) (bool, error) {
	// The usage_count guard keeps a racing redemption from deleting history.
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM promotions WHERE id = ? AND usage_count = 0`,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) IncrementUsageIfBelowLimit(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	// Single conditional write: the check and the increment happen in one
	// statement, so concurrent redeemers serialize on the row and the count
	// can never pass the limit.
	res := r.db.WithContext(ctx).Exec(
		`UPDATE promotions
		 SET usage_count = usage_count + 1, updated_at = ?
		 WHERE id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		now,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
