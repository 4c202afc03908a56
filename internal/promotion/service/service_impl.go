package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/clock"
	obsmetrics "github.com/giftlane/promos/internal/observability/metrics"
	"github.com/giftlane/promos/internal/promotion/domain"
	"github.com/giftlane/promos/pkg/db"
	"github.com/giftlane/promos/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Metrics *obsmetrics.PromotionMetrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	metrics *obsmetrics.PromotionMetrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("promotion.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

// Validate is the read-only eligibility check used for checkout previews.
// It never mutates state, so callers may repeat it freely.
func (s *Service) Validate(ctx context.Context, req domain.ValidateRequest) (*domain.ValidationResult, error) {
	promo, result, err := s.eligibility(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil && promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		result = limitReachedResult()
	}
	if result == nil {
		result = s.validResult(promo, req.OrderValue)
	}

	s.metrics.RecordValidation(resultLabel(result))
	return result, nil
}

// Redeem consumes one usage slot at order placement. The usage-limit check
// and the increment are a single conditional write in the store, so two
// simultaneous orders can never both pass a limit with one slot left. A lost
// race surfaces as UsageLimitReached, indistinguishable from a plain limit
// violation, and is not retried here.
func (s *Service) Redeem(ctx context.Context, req domain.ValidateRequest) (*domain.ValidationResult, error) {
	promo, result, err := s.eligibility(ctx, req)
	if err != nil {
		return nil, err
	}

	if result == nil {
		ok, err := s.repo.IncrementUsageIfBelowLimit(ctx, promo.ID, s.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("increment usage: %w", err)
		}
		if !ok {
			result = limitReachedResult()
		} else {
			// The discount comes from the pre-increment snapshot; the
			// fields it depends on do not change with the count.
			promo.UsageCount++
			result = s.validResult(promo, req.OrderValue)
			s.log.Info("promotion redeemed",
				zap.String("code", promo.Code),
				zap.Int64("order_value", req.OrderValue),
				zap.Int64("usage_count", promo.UsageCount),
			)
		}
	}

	s.metrics.RecordRedemption(resultLabel(result))
	return result, nil
}

// eligibility runs the shared, side-effect-free steps: normalize, lookup,
// derived status, minimum order value. A non-nil result means the code was
// rejected; a nil result with a non-nil promotion means it passed.
func (s *Service) eligibility(ctx context.Context, req domain.ValidateRequest) (*domain.Promotion, *domain.ValidationResult, error) {
	if req.OrderValue < 0 {
		return nil, nil, domain.ErrInvalidOrderValue
	}

	code := domain.NormalizeCode(req.Code)
	if code == "" {
		return nil, notFoundResult(), nil
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("find promotion by code: %w", err)
	}
	if promo == nil {
		return nil, notFoundResult(), nil
	}

	if status := promo.Status(s.clock.Now()); status != domain.StatusActive {
		return nil, &domain.ValidationResult{
			Error: &domain.ValidationError{
				Kind:   domain.ErrorPromotionNotActive,
				Status: status,
				Detail: fmt.Sprintf("promotion is %s", status),
			},
		}, nil
	}

	if req.OrderValue < promo.MinOrderValue {
		return nil, &domain.ValidationResult{
			Error: &domain.ValidationError{
				Kind:          domain.ErrorOrderBelowMinimum,
				MinOrderValue: promo.MinOrderValue,
				Shortfall:     promo.MinOrderValue - req.OrderValue,
			},
		}, nil
	}

	return promo, nil, nil
}

func (s *Service) validResult(promo *domain.Promotion, orderValue int64) *domain.ValidationResult {
	discount := promo.Discount(orderValue)
	resp := s.toResponse(promo)
	return &domain.ValidationResult{
		Valid:          true,
		Promotion:      &resp,
		DiscountAmount: &discount,
	}
}

func notFoundResult() *domain.ValidationResult {
	return &domain.ValidationResult{
		Error: &domain.ValidationError{Kind: domain.ErrorCodeNotFound},
	}
}

func limitReachedResult() *domain.ValidationResult {
	return &domain.ValidationResult{
		Error: &domain.ValidationError{Kind: domain.ErrorUsageLimitReached},
	}
}

func resultLabel(result *domain.ValidationResult) string {
	if result.Valid {
		return "valid"
	}
	return string(result.Error.Kind)
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	now := s.clock.Now()

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	promo := &domain.Promotion{
		ID:                s.genID.Generate(),
		Code:              domain.NormalizeCode(req.Code),
		Title:             strings.TrimSpace(req.Title),
		Type:              req.Type,
		Value:             req.Value,
		MinOrderValue:     req.MinOrderValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		StartDate:         req.StartDate.UTC(),
		EndDate:           normalizeEnd(req.EndDate),
		UsageLimit:        req.UsageLimit,
		UsageCount:        0,
		IsActive:          active,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.Metadata != nil {
		promo.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if promo.StartDate.IsZero() {
		return nil, domain.ErrInvalidDateRange
	}
	if err := promo.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, promo); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeExists
		}
		return nil, fmt.Errorf("create promotion: %w", err)
	}

	resp := s.toResponse(promo)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	page := req.Page.Normalize()

	filter := domain.ListFilter{
		Code:     strings.TrimSpace(req.Code),
		Type:     req.Type,
		IsActive: req.IsActive,
		Status:   req.Status,
		Now:      s.clock.Now(),
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
		Limit:    page.PageSize + 1,
	}
	if token := strings.TrimSpace(page.PageToken); token != "" {
		// Cursor pages are keyed on id and only line up with the default
		// id DESC order; a custom sort would skip or repeat rows across
		// the boundary.
		if filter.SortBy != "" {
			return nil, domain.ErrInvalidPageToken
		}
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		filter.AfterID = afterID
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}

	pageInfo := pagination.PageInfo{}
	if len(items) > page.PageSize {
		items = items[:page.PageSize]
		pageInfo.HasMore = true
		if filter.SortBy == "" {
			token, err := pagination.EncodeCursor(pagination.Cursor{ID: items[len(items)-1].ID.String()})
			if err != nil {
				return nil, err
			}
			pageInfo.NextPageToken = token
		}
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i]))
	}

	return &domain.ListResponse{Promotions: resp, PageInfo: pageInfo}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	promo, err := s.findByIDString(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(promo)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	promo, err := s.findByIDString(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		promo.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		promo.Type = *req.Type
	}
	if req.Value != nil {
		promo.Value = *req.Value
	}
	if req.MinOrderValue != nil {
		promo.MinOrderValue = *req.MinOrderValue
	}
	if req.MaxDiscountAmount != nil {
		promo.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.StartDate != nil {
		promo.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		promo.EndDate = normalizeEnd(req.EndDate)
	}
	if req.UsageLimit != nil {
		// Lowering the limit below slots already consumed would leave the
		// stored count past it.
		if *req.UsageLimit < promo.UsageCount {
			return nil, domain.ErrInvalidUsageLimit
		}
		promo.UsageLimit = req.UsageLimit
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}
	promo.UpdatedAt = s.clock.Now()

	if err := promo.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, promo); err != nil {
		return nil, fmt.Errorf("update promotion: %w", err)
	}

	resp := s.toResponse(promo)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	promo, err := s.findByIDString(ctx, id)
	if err != nil {
		return err
	}
	if promo.UsageCount > 0 {
		return domain.ErrPromotionInUse
	}

	deleted, err := s.repo.Delete(ctx, promo.ID)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if !deleted {
		// A redemption landed between the read and the delete.
		return domain.ErrPromotionInUse
	}
	return nil
}

func (s *Service) findByIDString(ctx context.Context, id string) (*domain.Promotion, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}

	promo, err := s.repo.FindByID(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("find promotion: %w", err)
	}
	if promo == nil {
		return nil, domain.ErrNotFound
	}
	return promo, nil
}

func (s *Service) toResponse(p *domain.Promotion) domain.Response {
	resp := domain.Response{
		ID:                p.ID.String(),
		Code:              p.Code,
		Title:             p.Title,
		Type:              p.Type,
		Value:             p.Value,
		MinOrderValue:     p.MinOrderValue,
		MaxDiscountAmount: p.MaxDiscountAmount,
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		UsageLimit:        p.UsageLimit,
		UsageCount:        p.UsageCount,
		Remaining:         p.Remaining(),
		IsActive:          p.IsActive,
		Status:            p.Status(s.clock.Now()),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.Metadata != nil {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}

func normalizeEnd(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
