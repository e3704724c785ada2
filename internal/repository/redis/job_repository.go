package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

// ClaimedJob is a job leased to one dispatcher until LeaseUntil.
type ClaimedJob struct {
	Queue      string
	ID         string
	LeaseUntil int64
}

// JobRepository is a durable delayed-job queue: one sorted set per queue,
// members are job ids, scores are due times in unix milliseconds. Claiming
// pushes the score forward by the lease, so a crashed worker's jobs become
// due again.
type JobRepository interface {
	Schedule(ctx context.Context, queue, id string, at time.Time) error
	Cancel(ctx context.Context, queue, id string) error
	ClaimDue(ctx context.Context, queue string, now time.Time, limit int, lease time.Duration) ([]ClaimedJob, error)
	Ack(ctx context.Context, job ClaimedJob) error
	DueAt(ctx context.Context, queue, id string) (time.Time, bool, error)
	Len(ctx context.Context, queue string) (int64, error)
}

var claimDueScript = redis.NewScript(`
	local key = KEYS[1]

	local due = redis.call('ZRANGEBYSCORE', key, '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
	for _, member in ipairs(due) do
		redis.call('ZADD', key, ARGV[3], member)
	end

	return due
`)

var ackScript = redis.NewScript(`
	local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
	if score and tonumber(score) == tonumber(ARGV[2]) then
		return redis.call('ZREM', KEYS[1], ARGV[1])
	end
	return 0
`)

type redisJobRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisJobRepository(cli *redis.Client, l logger.Logger) JobRepository {
	return &redisJobRepository{
		cli: cli,
		l:   l,
	}
}

// Schedule joins the caller's transaction when ctx carries one.
func (r *redisJobRepository) Schedule(ctx context.Context, queue, id string, at time.Time) error {
	if err := writer(ctx, r.cli).ZAdd(ctx, jobQueueKey(queue), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: id,
	}).Err(); err != nil {
		r.l.Errorf(ctx, "redisJobRepository.Schedule: %v", err)
		return err
	}

	return nil
}

func (r *redisJobRepository) Cancel(ctx context.Context, queue, id string) error {
	return writer(ctx, r.cli).ZRem(ctx, jobQueueKey(queue), id).Err()
}

func (r *redisJobRepository) ClaimDue(ctx context.Context, queue string, now time.Time, limit int, lease time.Duration) ([]ClaimedJob, error) {
	nowMs := now.UnixMilli()
	leaseUntil := nowMs + lease.Milliseconds()

	ids, err := claimDueScript.Run(ctx, r.cli, []string{jobQueueKey(queue)}, nowMs, limit, leaseUntil).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.l.Errorf(ctx, "redisJobRepository.ClaimDue: %v", err)
		return nil, err
	}

	jobs := make([]ClaimedJob, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, ClaimedJob{
			Queue:      queue,
			ID:         id,
			LeaseUntil: leaseUntil,
		})
	}

	return jobs, nil
}

// Ack removes the job only if it still carries the lease it was claimed
// with. A job re-scheduled by its handler survives the ack.
func (r *redisJobRepository) Ack(ctx context.Context, job ClaimedJob) error {
	if err := ackScript.Run(ctx, r.cli, []string{jobQueueKey(job.Queue)}, job.ID, job.LeaseUntil).Err(); err != nil && !errors.Is(err, redis.Nil) {
		r.l.Errorf(ctx, "redisJobRepository.Ack: %v", err)
		return err
	}

	return nil
}

func (r *redisJobRepository) DueAt(ctx context.Context, queue, id string) (time.Time, bool, error) {
	score, err := r.cli.ZScore(ctx, jobQueueKey(queue), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}

	return time.UnixMilli(int64(score)).UTC(), true, nil
}

func (r *redisJobRepository) Len(ctx context.Context, queue string) (int64, error) {
	return r.cli.ZCard(ctx, jobQueueKey(queue)).Result()
}
