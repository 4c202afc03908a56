package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/shippingfee/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, fee *domain.ShippingFee) error {
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.ShippingFee, error) {
	var fee domain.ShippingFee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *repository) FindByRegion(ctx context.Context, region string) (*domain.ShippingFee, error) {
	var fee domain.ShippingFee
	err := r.db.WithContext(ctx).
		Where("LOWER(region) = LOWER(?)", strings.TrimSpace(region)).
		First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

var sortColumns = map[string]bool{
	"region":     true,
	"fee":        true,
	"created_at": true,
	"updated_at": true,
}

func (r *repository) List(ctx context.Context, filter domain.ListRequest) ([]domain.ShippingFee, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.ShippingFee{})

	if filter.Region != "" {
		stmt = stmt.Where("LOWER(region) = LOWER(?)", filter.Region)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	order := "region ASC"
	if sortColumns[filter.SortBy] {
		direction := "ASC"
		if strings.EqualFold(filter.OrderBy, "desc") {
			direction = "DESC"
		}
		order = fmt.Sprintf("%s %s", filter.SortBy, direction)
	}
	stmt = stmt.Order(order)

	var items []domain.ShippingFee
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, fee *domain.ShippingFee) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE shipping_fees
		 SET region = ?, fee = ?, free_threshold = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		fee.Region,
		fee.Fee,
		fee.FreeThreshold,
		fee.IsActive,
		fee.UpdatedAt,
		fee.ID,
	).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM shipping_fees WHERE id = ?`,
		id,
	).Error
}
