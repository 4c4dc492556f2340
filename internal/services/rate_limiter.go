package services

import (
	"context"
	"strconv"
	"time"

	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/store"
	"go.uber.org/zap"
)

// IPRateLimiter throttles code issuance per client IP with a fixed
// window: the counter's expiry is set on the first increment only, so a
// persistent abuser cannot extend their own window.
type IPRateLimiter struct {
	store       store.Store
	maxRequests int
	window      time.Duration
	logger      *logging.SafeLogger
	now         func() time.Time
}

// NewIPRateLimiter creates a rate limiter allowing maxRequests per
// window for each IP.
func NewIPRateLimiter(st store.Store, maxRequests int, window time.Duration, logger *logging.SafeLogger) *IPRateLimiter {
	return &IPRateLimiter{
		store:       st,
		maxRequests: maxRequests,
		window:      window,
		logger:      logger,
		now:         time.Now,
	}
}

// CheckLimit reports whether the IP may request another code. An empty
// IP is always allowed: unidentifiable clients fail open.
func (rl *IPRateLimiter) CheckLimit(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return true, nil
	}
	val, err := rl.store.Get(ctx, ipKeyPrefix+ip)
	if err == store.ErrNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	count, _ := strconv.Atoi(val)
	if count >= rl.maxRequests {
		observability.RateLimitRejections.Inc()
		rl.logger.Warn("ip rate limit exceeded",
			zap.String("ip", ip),
			zap.Int("count", count))
		return false, nil
	}
	return true, nil
}

// Increment counts a code request against the IP. The window TTL is set
// only when the counter is created; later increments never refresh it.
func (rl *IPRateLimiter) Increment(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	key := ipKeyPrefix + ip
	exists, err := rl.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if _, err := rl.store.Increment(ctx, key); err != nil {
		return err
	}
	if !exists {
		return rl.store.ExpireAt(ctx, key, rl.now().Add(rl.window))
	}
	return nil
}
