package ratelimit

import (
	"call-server/internal/clients/redis"
	"call-server/internal/observability"
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Result represents the outcome of a rate limit check
type Result struct {
	Allowed      bool      `json:"allowed"`
	Limit        int       `json:"limit"`
	Remaining    int       `json:"remaining"`
	ResetAt      time.Time `json:"reset_at"`
	RetryAfterMs int       `json:"retry_after_ms,omitempty"`
}

// Service throttles call dispatches per client using a Redis sliding window.
// When Redis is disabled or unreachable the check fails open: an outage of the
// limiter never blocks outbound calling.
type Service struct {
	redis  *redis.Client
	limit  int
	logger *observability.Logger
}

func NewService(redisClient *redis.Client, dispatchesPerMinute int, logger *observability.Logger) *Service {
	return &Service{
		redis:  redisClient,
		limit:  dispatchesPerMinute,
		logger: logger,
	}
}

// Check records one dispatch attempt for clientKey and reports whether it is
// within the per-minute limit.
func (s *Service) Check(ctx context.Context, clientKey string) (Result, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "client_key", Value: clientKey},
		observability.Field{Key: "rate_limit", Value: s.limit},
	)

	if !s.redis.IsEnabled() {
		return Result{Allowed: true, Limit: s.limit, Remaining: s.limit}, nil
	}

	result, err := s.checkRedis(ctx, clientKey)
	if err != nil {
		s.logger.Warn(ctx, "Redis rate limit check failed, allowing dispatch")
		return Result{Allowed: true, Limit: s.limit, Remaining: s.limit}, nil
	}
	return result, nil
}

// checkRedis implements sliding window rate limiting with a sorted set.
// Key: rl:dispatch:{client}, members and scores are timestamps in milliseconds.
func (s *Service) checkRedis(ctx context.Context, clientKey string) (Result, error) {
	key := fmt.Sprintf("rl:dispatch:%s", clientKey)
	now := time.Now()
	nowMs := now.UnixMilli()
	windowStartMs := now.Add(-1 * time.Minute).UnixMilli()

	// Remove entries outside the 1-minute window
	err := s.redis.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStartMs))
	if err != nil {
		return Result{}, fmt.Errorf("failed to remove old entries: %w", err)
	}

	count, err := s.redis.ZCard(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count dispatches: %w", err)
	}

	if int(count) >= s.limit {
		oldest, err := s.redis.ZRange(ctx, key, 0, 0)
		if err != nil || len(oldest) == 0 {
			return Result{
				Allowed:      false,
				Limit:        s.limit,
				Remaining:    0,
				ResetAt:      now.Add(1 * time.Minute),
				RetryAfterMs: 60000,
			}, nil
		}

		var oldestTs int64
		fmt.Sscanf(oldest[0], "%d", &oldestTs)
		retryAfter := time.UnixMilli(oldestTs).Add(1 * time.Minute).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}

		return Result{
			Allowed:      false,
			Limit:        s.limit,
			Remaining:    0,
			ResetAt:      time.UnixMilli(oldestTs).Add(1 * time.Minute),
			RetryAfterMs: int(retryAfter.Milliseconds()),
		}, nil
	}

	err = s.redis.ZAdd(ctx, key, goredis.Z{
		Score:  float64(nowMs),
		Member: fmt.Sprintf("%d", nowMs),
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to record dispatch: %w", err)
	}

	// Expiration keeps idle client keys from accumulating
	if err := s.redis.Expire(ctx, key, 2*time.Minute); err != nil {
		s.logger.Warn(ctx, "failed to set expiration on rate limit key")
	}

	return Result{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: s.limit - int(count) - 1,
		ResetAt:   now.Add(1 * time.Minute),
	}, nil
}
