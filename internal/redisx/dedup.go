package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Dedup marks event ids as processed.
type Dedup struct {
	Client  *redis.Client
	Service string
}

// FirstSeen atomically claims id and reports whether this call was the first.
func (d *Dedup) FirstSeen(ctx context.Context, id string) (bool, error) {
	return d.Client.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Result()
}

// Forget releases a claim so a failed event can be retried.
func (d *Dedup) Forget(ctx context.Context, id string) error {
	return d.Client.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
