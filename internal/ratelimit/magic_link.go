package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/ultracivic/backend/internal/config"
)

// MagicLinkLimiter bounds how often one email/IP pair can request a
// login link.
type MagicLinkLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewMagicLinkLimiter(cfg config.Config, bucket *TokenBucket) *MagicLinkLimiter {
	perMinute := cfg.MagicLinkRequestsPerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	return &MagicLinkLimiter{
		bucket: bucket,
		rate:   float64(perMinute) / float64(time.Minute/time.Second),
		burst:  perMinute,
	}
}

func (l *MagicLinkLimiter) Allow(ctx context.Context, email, ip string) (bool, error) {
	if l == nil || l.bucket == nil {
		return true, nil
	}
	key := fmt.Sprintf("ratelimit:magiclink:%s:%s", email, ip)
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}
