package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/paydeck/paydeck/pkg/settlement"
)

// NewAccountLocker creates the funding account locker. With a Redis URL the
// lock spans every running instance; without one it only serializes runs in
// this process.
func NewAccountLocker(redisURL string) settlement.AccountLocker {
	if redisURL == "" {
		return settlement.NewLocalLocker()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse redis URL: %w", err))
	}

	return settlement.NewRedisLocker(redis.NewClient(opts))
}
