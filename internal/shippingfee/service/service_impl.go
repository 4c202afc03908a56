package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/giftlane/promos/internal/clock"
	"github.com/giftlane/promos/internal/shippingfee/domain"
	"github.com/giftlane/promos/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("shippingfee.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	now := s.clock.Now()

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	fee := &domain.ShippingFee{
		ID:            s.genID.Generate(),
		Region:        strings.TrimSpace(req.Region),
		Fee:           req.Fee,
		FreeThreshold: req.FreeThreshold,
		IsActive:      active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := fee.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, fee); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrRegionExists
		}
		return nil, fmt.Errorf("create shipping fee: %w", err)
	}

	resp := toResponse(fee)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Region:   strings.TrimSpace(req.Region),
		IsActive: req.IsActive,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list shipping fees: %w", err)
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	fee, err := s.findByIDString(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(fee)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	fee, err := s.findByIDString(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Region != nil {
		fee.Region = strings.TrimSpace(*req.Region)
	}
	if req.Fee != nil {
		fee.Fee = *req.Fee
	}
	if req.FreeThreshold != nil {
		fee.FreeThreshold = req.FreeThreshold
	}
	if req.IsActive != nil {
		fee.IsActive = *req.IsActive
	}
	fee.UpdatedAt = s.clock.Now()

	if err := fee.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, fee); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrRegionExists
		}
		return nil, fmt.Errorf("update shipping fee: %w", err)
	}

	resp := toResponse(fee)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	fee, err := s.findByIDString(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, fee.ID); err != nil {
		return fmt.Errorf("delete shipping fee: %w", err)
	}
	return nil
}

func (s *Service) Quote(ctx context.Context, region string, orderValue int64) (*domain.QuoteResponse, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, domain.ErrInvalidRegion
	}

	fee, err := s.repo.FindByRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("find shipping fee: %w", err)
	}
	if fee == nil || !fee.IsActive {
		return nil, domain.ErrNotFound
	}

	amount := fee.FeeFor(orderValue)
	return &domain.QuoteResponse{
		Region: fee.Region,
		Fee:    amount,
		Free:   amount == 0,
	}, nil
}

func (s *Service) findByIDString(ctx context.Context, id string) (*domain.ShippingFee, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}

	fee, err := s.repo.FindByID(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("find shipping fee: %w", err)
	}
	if fee == nil {
		return nil, domain.ErrNotFound
	}
	return fee, nil
}

func toResponse(f *domain.ShippingFee) domain.Response {
	return domain.Response{
		ID:            f.ID.String(),
		Region:        f.Region,
		Fee:           f.Fee,
		FreeThreshold: f.FreeThreshold,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}
