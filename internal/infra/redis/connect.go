package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	pkgRedis "github.com/vogiaan1904/ticketbottle-reservation/pkg/redis"
)

const (
	pingAttempts = 5
	pingBackoff  = 500 * time.Millisecond
)

// Connect builds a client and waits until Redis answers a ping, backing off
// linearly between attempts.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	cli, err := pkgRedis.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = cli.Ping(ctx).Err()
		if err == nil {
			break
		}
		if attempt == pingAttempts {
			cli.Close()
			return nil, fmt.Errorf("failed to ping Redis after %d attempts: %w", attempt, err)
		}

		log.Printf("Redis not ready (attempt %d/%d): %v\n", attempt, pingAttempts, err)
		select {
		case <-ctx.Done():
			cli.Close()
			return nil, ctx.Err()
		case <-time.After(pingBackoff * time.Duration(attempt)):
		}
	}

	log.Println("Connected to Redis.")

	return cli, nil
}

func Disconnect(cli *redis.Client) {
	if cli == nil {
		return
	}

	cli.Close()

	log.Println("Connection to Redis closed.")
}
