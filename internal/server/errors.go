package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	promodomain "github.com/giftlane/promos/internal/promotion/domain"
	shippingdomain "github.com/giftlane/promos/internal/shippingfee/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, promodomain.ErrInvalidID),
		errors.Is(err, promodomain.ErrInvalidPageToken),
		errors.Is(err, promodomain.ErrInvalidCode),
		errors.Is(err, promodomain.ErrInvalidType),
		errors.Is(err, promodomain.ErrInvalidValue),
		errors.Is(err, promodomain.ErrInvalidMinOrderValue),
		errors.Is(err, promodomain.ErrInvalidMaxDiscount),
		errors.Is(err, promodomain.ErrInvalidDateRange),
		errors.Is(err, promodomain.ErrInvalidUsageLimit),
		errors.Is(err, promodomain.ErrInvalidOrderValue),
		errors.Is(err, shippingdomain.ErrInvalidID),
		errors.Is(err, shippingdomain.ErrInvalidRegion),
		errors.Is(err, shippingdomain.ErrInvalidFee),
		errors.Is(err, shippingdomain.ErrInvalidFreeThreshold):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, promodomain.ErrCodeExists),
		errors.Is(err, promodomain.ErrPromotionInUse),
		errors.Is(err, shippingdomain.ErrRegionExists):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, promodomain.ErrCodeExists):
		return "promotion code already exists"
	case errors.Is(err, promodomain.ErrPromotionInUse):
		return "promotion has recorded redemptions"
	case errors.Is(err, shippingdomain.ErrRegionExists):
		return "shipping fee region already exists"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, promodomain.ErrNotFound),
		errors.Is(err, shippingdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, promodomain.ErrInvalidID),
		errors.Is(err, shippingdomain.ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, promodomain.ErrInvalidPageToken):
		return "invalid_page_token"
	case errors.Is(err, promodomain.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, promodomain.ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, promodomain.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, promodomain.ErrInvalidMinOrderValue):
		return "invalid_min_order_value"
	case errors.Is(err, promodomain.ErrInvalidMaxDiscount):
		return "invalid_max_discount_amount"
	case errors.Is(err, promodomain.ErrInvalidDateRange):
		return "invalid_date_range"
	case errors.Is(err, promodomain.ErrInvalidUsageLimit):
		return "invalid_usage_limit"
	case errors.Is(err, promodomain.ErrInvalidOrderValue):
		return "invalid_order_value"
	case errors.Is(err, shippingdomain.ErrInvalidRegion):
		return "invalid_region"
	case errors.Is(err, shippingdomain.ErrInvalidFee):
		return "invalid_fee"
	case errors.Is(err, shippingdomain.ErrInvalidFreeThreshold):
		return "invalid_free_threshold"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog maps a handler error to the (type, code) pair the
// request logger records. It mirrors mapError but never touches the response.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if vErr := asValidationErrors(err); vErr != nil && len(vErr.Errors) > 0 {
		return "validation_error", vErr.Errors[0].Code
	}
	switch {
	case isValidationError(err):
		return "validation_error", validationErrorCode(err)
	case isConflictError(err):
		return "conflict", "conflict"
	case isNotFoundError(err):
		return "not_found", "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited", "rate_limited"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable", "service_unavailable"
	default:
		return "internal_error", "internal_error"
	}
}
