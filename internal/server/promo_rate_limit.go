package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/giftlane/promos/internal/observability/logger"
	"github.com/giftlane/promos/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	rateLimitEndpointValidate = "validate"
	rateLimitEndpointRedeem   = "redeem"
)

// PromoRateLimit throttles validate/redeem per client IP so a scripted
// client cannot enumerate codes. Limiter errors fail closed: a broken
// Redis should not open the redemption path wide.
func (s *Server) PromoRateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.promoLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		clientKey := c.ClientIP()

		var (
			result *ratelimit.Result
			err    error
		)
		switch endpoint {
		case rateLimitEndpointRedeem:
			result, err = s.promoLimiter.AllowRedeem(ctx, clientKey)
		default:
			result, err = s.promoLimiter.AllowValidate(ctx, clientKey)
		}
		if err != nil {
			logger.FromContext(ctx).Warn("promo rate limit check failed",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		if !result.Allowed {
			logger.FromContext(ctx).Warn("promo rate limit exceeded",
				zap.String("endpoint", endpoint),
			)
			if s.promoMetrics != nil {
				s.promoMetrics.RecordRateLimited(endpoint)
			}

			c.Header("Retry-After", retryAfterSeconds(result))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}

func retryAfterSeconds(result *ratelimit.Result) string {
	secs := int64(math.Ceil(result.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
