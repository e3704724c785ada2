package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
	repo "github.com/vogiaan1904/ticketbottle-reservation/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/clock"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

const ActionQueueJoin = "queue_join"

type RateLimiter interface {
	// Allow records one attempt by subject. It returns a *RateLimitError
	// once the subject has used up the current window.
	Allow(ctx context.Context, subject string) error
}

type fixedWindowLimiter struct {
	repo   repo.RateLimitRepository
	action string
	limit  int
	window time.Duration
	clk    clock.Clock
	l      logger.Logger
}

func NewJoinRateLimiter(repo repo.RateLimitRepository, conf config.ReservationConfig, clk clock.Clock, l logger.Logger) RateLimiter {
	return &fixedWindowLimiter{
		repo:   repo,
		action: ActionQueueJoin,
		limit:  conf.RateLimitJoinMax,
		window: conf.RateLimitJoinWindow,
		clk:    clk,
		l:      l,
	}
}

func (rl *fixedWindowLimiter) Allow(ctx context.Context, subject string) error {
	allowed, retryAfter, err := rl.repo.Hit(ctx, rl.action, subject, rl.limit, rl.window, rl.clk.Now())
	if err != nil {
		rl.l.Errorf(ctx, "fixedWindowLimiter.Allow: %v", err)
		return fmt.Errorf("rate limiter: %w", err)
	}

	if allowed {
		return nil
	}

	if retryAfter <= 0 {
		retryAfter = time.Millisecond
	}

	metrics.RecordRateLimited(rl.action)
	rl.l.Warnf(ctx, "rate limit hit - action: %s, subject: %s, retry_after: %s", rl.action, subject, retryAfter)

	return &RateLimitError{RetryAfter: retryAfter}
}
