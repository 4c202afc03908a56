package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giftlane/promos/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyPromoValidate = "promo:validate:%s"
	keyPromoRedeem   = "promo:redeem:%s"
)

// PromoLimiter throttles validate/redeem calls per client to slow down promo
// code guessing. A nil limiter is valid and allows everything.
type PromoLimiter struct {
	enabled bool

	bucket *TokenBucket

	validateRate  float64
	validateBurst int
	redeemRate    float64
	redeemBurst   int
}

func NewPromoLimiter(cfg config.Config) (*PromoLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ValidateRate <= 0 || limitCfg.ValidateBurst <= 0 {
		return nil, errors.New("validate rate limit must be positive")
	}
	if limitCfg.RedeemRate <= 0 || limitCfg.RedeemBurst <= 0 {
		return nil, errors.New("redeem rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})

	return &PromoLimiter{
		enabled:       true,
		bucket:        NewTokenBucket(client),
		validateRate:  limitCfg.ValidateRate,
		validateBurst: limitCfg.ValidateBurst,
		redeemRate:    limitCfg.RedeemRate,
		redeemBurst:   limitCfg.RedeemBurst,
	}, nil
}

func (l *PromoLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *PromoLimiter) AllowValidate(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPromoValidate, strings.TrimSpace(clientKey)), l.validateRate, l.validateBurst)
}

func (l *PromoLimiter) AllowRedeem(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPromoRedeem, strings.TrimSpace(clientKey)), l.redeemRate, l.redeemBurst)
}
