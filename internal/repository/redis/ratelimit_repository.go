package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type RateLimitRepository interface {
	// Hit records one attempt for (action, subject) in a fixed window. When
	// the window is already full nothing is written and the time until the
	// window resets is returned.
	Hit(ctx context.Context, action, subject string, limit int, window time.Duration, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}

var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])

	local reset = tonumber(redis.call('HGET', key, 'reset_at'))
	if reset == nil or now >= reset then
		redis.call('HSET', key, 'count', '1', 'reset_at', ARGV[3])
		redis.call('PEXPIRE', key, ARGV[4])
		return {1, 0}
	end

	local count = tonumber(redis.call('HGET', key, 'count')) or 0
	if count >= limit then
		return {0, reset - now}
	end

	redis.call('HINCRBY', key, 'count', 1)
	return {1, 0}
`)

type redisRateLimitRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisRateLimitRepository(cli *redis.Client, l logger.Logger) RateLimitRepository {
	return &redisRateLimitRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisRateLimitRepository) Hit(ctx context.Context, action, subject string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error) {
	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()

	res, err := fixedWindowScript.Run(ctx, r.cli,
		[]string{rateLimitKey(action, subject)},
		limit, nowMs, nowMs+windowMs, windowMs,
	).Int64Slice()
	if err != nil {
		r.l.Errorf(ctx, "redisRateLimitRepository.Hit: %v", err)
		return false, 0, err
	}

	if len(res) != 2 {
		return false, 0, fmt.Errorf("redisRateLimitRepository.Hit: unexpected reply %v", res)
	}

	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}
