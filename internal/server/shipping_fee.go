package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	shippingdomain "github.com/giftlane/promos/internal/shippingfee/domain"
)

type createShippingFeeRequest struct {
	Region        string `json:"region"`
	Fee           int64  `json:"fee"`
	FreeThreshold *int64 `json:"free_threshold"`
	IsActive      *bool  `json:"is_active"`
}

func (s *Server) CreateShippingFee(c *gin.Context) {
	var req createShippingFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shippingFeeSvc.Create(c.Request.Context(), shippingdomain.CreateRequest{
		Region:        strings.TrimSpace(req.Region),
		Fee:           req.Fee,
		FreeThreshold: req.FreeThreshold,
		IsActive:      req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListShippingFees(c *gin.Context) {
	var query struct {
		Region   string `form:"region"`
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

	resp, err := s.shippingFeeSvc.List(c.Request.Context(), shippingdomain.ListRequest{
		Region:   strings.TrimSpace(query.Region),
		IsActive: isActive,
		SortBy:   strings.TrimSpace(query.SortBy),
		OrderBy:  strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetShippingFeeByID(c *gin.Context) {
	resp, err := s.shippingFeeSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateShippingFeeRequest struct {
	Region        *string `json:"region"`
	Fee           *int64  `json:"fee"`
	FreeThreshold *int64  `json:"free_threshold"`
	IsActive      *bool   `json:"is_active"`
}

func (s *Server) UpdateShippingFee(c *gin.Context) {
	var req updateShippingFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shippingFeeSvc.Update(c.Request.Context(), shippingdomain.UpdateRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Region:        req.Region,
		Fee:           req.Fee,
		FreeThreshold: req.FreeThreshold,
		IsActive:      req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteShippingFee(c *gin.Context) {
	if err := s.shippingFeeSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) QuoteShippingFee(c *gin.Context) {
	region := strings.TrimSpace(c.Query("region"))
	if region == "" {
		AbortWithError(c, newValidationError("region", "invalid_region", "region is required"))
		return
	}

	orderValue, err := parseOptionalInt64(c.Query("order_value"))
	if err != nil || orderValue == nil {
		AbortWithError(c, newValidationError("order_value", "invalid_order_value", "invalid order_value"))
		return
	}

	resp, err := s.shippingFeeSvc.Quote(c.Request.Context(), region, *orderValue)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
