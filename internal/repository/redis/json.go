package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// getJSON returns nil, nil when the key does not exist.
func getJSON[T any](ctx context.Context, c redis.Cmdable, key string) (*T, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	return &v, nil
}

// mgetJSON keeps the order of keys; missing keys yield nil elements.
func mgetJSON[T any](ctx context.Context, c redis.Cmdable, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, len(keys))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}

		var t T
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out[i] = &t
	}

	return out, nil
}

func setJSON(ctx context.Context, c redis.Cmdable, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, raw, 0).Err()
}
