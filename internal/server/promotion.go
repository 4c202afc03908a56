package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	promodomain "github.com/giftlane/promos/internal/promotion/domain"
	"github.com/giftlane/promos/pkg/db/pagination"
)

type createPromotionRequest struct {
	Code              string         `json:"code"`
	Title             string         `json:"title"`
	Type              string         `json:"type"`
	Value             float64        `json:"value"`
	MinOrderValue     int64          `json:"min_order_value"`
	MaxDiscountAmount *int64         `json:"max_discount_amount"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           *time.Time     `json:"end_date"`
	UsageLimit        *int64         `json:"usage_limit"`
	IsActive          *bool          `json:"is_active"`
	Metadata          map[string]any `json:"metadata"`
}

func (s *Server) CreatePromotion(c *gin.Context) {
	var req createPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.Create(c.Request.Context(), promodomain.CreateRequest{
		Code:              req.Code,
		Title:             strings.TrimSpace(req.Title),
		Type:              promodomain.Type(strings.TrimSpace(req.Type)),
		Value:             req.Value,
		MinOrderValue:     req.MinOrderValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		UsageLimit:        req.UsageLimit,
		IsActive:          req.IsActive,
		Metadata:          req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPromotions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Code     string `form:"code"`
		Type     string `form:"type"`
		Status   string `form:"status"`
		IsActive string `form:"is_active"`
		SortBy   string `form:"sort_by"`
		OrderBy  string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isActive, err := parseOptionalBool(query.IsActive)
	if err != nil {
		AbortWithError(c, newValidationError("is_active", "invalid_is_active", "invalid is_active"))
		return
	}

	resp, err := s.promotionSvc.List(c.Request.Context(), promodomain.ListRequest{
		Code:     query.Code,
		Type:     promodomain.Type(strings.TrimSpace(query.Type)),
		Status:   promodomain.Status(strings.TrimSpace(query.Status)),
		IsActive: isActive,
		SortBy:   strings.TrimSpace(query.SortBy),
		OrderBy:  strings.TrimSpace(query.OrderBy),
		Page:     query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPromotionByID(c *gin.Context) {
	resp, err := s.promotionSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updatePromotionRequest struct {
	Title             *string    `json:"title"`
	Type              *string    `json:"type"`
	Value             *float64   `json:"value"`
	MinOrderValue     *int64     `json:"min_order_value"`
	MaxDiscountAmount *int64     `json:"max_discount_amount"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	UsageLimit        *int64     `json:"usage_limit"`
	IsActive          *bool      `json:"is_active"`
}

func (s *Server) UpdatePromotion(c *gin.Context) {
	var req updatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var promoType *promodomain.Type
	if req.Type != nil {
		t := promodomain.Type(strings.TrimSpace(*req.Type))
		promoType = &t
	}

	resp, err := s.promotionSvc.Update(c.Request.Context(), promodomain.UpdateRequest{
		ID:                strings.TrimSpace(c.Param("id")),
		Title:             req.Title,
		Type:              promoType,
		Value:             req.Value,
		MinOrderValue:     req.MinOrderValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		UsageLimit:        req.UsageLimit,
		IsActive:          req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePromotion(c *gin.Context) {
	if err := s.promotionSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type checkPromotionRequest struct {
	Code       string `json:"code"`
	OrderValue int64  `json:"order_value"`
}

// ValidatePromotion answers "would this code apply" without consuming a
// usage slot. The eligibility outcome travels in the body, so a rejected
// code is still HTTP 200.
func (s *Server) ValidatePromotion(c *gin.Context) {
	var req checkPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.Validate(c.Request.Context(), promodomain.ValidateRequest{
		Code:       req.Code,
		OrderValue: req.OrderValue,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RedeemPromotion(c *gin.Context) {
	var req checkPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.promotionSvc.Redeem(c.Request.Context(), promodomain.ValidateRequest{
		Code:       req.Code,
		OrderValue: req.OrderValue,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
