package domain

import "errors"

var (
	ErrNotFound             = errors.New("promotion not found")
	ErrCodeExists           = errors.New("promotion code already exists")
	ErrPromotionInUse       = errors.New("promotion has recorded redemptions")
	ErrInvalidID            = errors.New("invalid promotion id")
	ErrInvalidPageToken     = errors.New("invalid page token")
	ErrInvalidCode          = errors.New("invalid promotion code")
	ErrInvalidType          = errors.New("invalid promotion type")
	ErrInvalidValue         = errors.New("invalid promotion value")
	ErrInvalidMinOrderValue = errors.New("invalid minimum order value")
	ErrInvalidMaxDiscount   = errors.New("invalid maximum discount amount")
	ErrInvalidDateRange     = errors.New("end date must be after start date")
	ErrInvalidUsageLimit    = errors.New("invalid usage limit")
	ErrInvalidOrderValue    = errors.New("invalid order value")
)
