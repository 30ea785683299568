package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuoteCache keeps the last fetched exchange-rate quote per label.
type QuoteCache struct{ Client *redis.Client }

func (c *QuoteCache) GetQuote(ctx context.Context, label string) (string, bool, error) {
	v, err := c.Client.Get(ctx, fmt.Sprintf(KeyQuote, label)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *QuoteCache) SetQuote(ctx context.Context, label, value string, ttl time.Duration) error {
	return c.Client.Set(ctx, fmt.Sprintf(KeyQuote, label), value, ttl).Err()
}
