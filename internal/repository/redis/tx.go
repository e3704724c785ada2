package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
)

// ErrTxConflict is returned when an optimistic transaction keeps losing the
// race for its version key.
var ErrTxConflict = errors.New("transaction conflict: retries exhausted")

type txKey struct{}

type txState struct {
	tx   *redis.Tx
	pipe redis.Pipeliner
}

func txFromContext(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	return txFromContext(ctx) != nil
}

// reader returns the connection holding the WATCH when inside a transaction.
func reader(ctx context.Context, cli *redis.Client) redis.Cmdable {
	if st := txFromContext(ctx); st != nil {
		return st.tx
	}
	return cli
}

// writer queues commands into the MULTI block when inside a transaction.
// Queued commands report errors only when the block is executed.
func writer(ctx context.Context, cli *redis.Client) redis.Cmdable {
	if st := txFromContext(ctx); st != nil {
		return st.pipe
	}
	return cli
}

// runTx executes fn as an optimistic transaction guarded by versionKey.
// Reads inside fn observe the state at WATCH time, writes are buffered and
// applied together with a version bump. Every writer bumps the version, so
// two transactions on the same key are serialized. Nested calls join the
// outer transaction.
func runTx(ctx context.Context, cli *redis.Client, maxRetries int, versionKey string, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Millisecond):
			}
		}

		err := cli.Watch(ctx, func(tx *redis.Tx) error {
			pipe := tx.TxPipeline()
			txCtx := context.WithValue(ctx, txKey{}, &txState{tx: tx, pipe: pipe})

			if err := fn(txCtx); err != nil {
				pipe.Discard()
				return err
			}

			if pipe.Len() == 0 {
				return nil
			}

			pipe.Incr(ctx, versionKey)
			_, err := pipe.Exec(ctx)
			return err
		}, versionKey)

		if errors.Is(err, redis.TxFailedErr) {
			metrics.RecordTxConflict()
			continue
		}

		return err
	}

	return ErrTxConflict
}
