package ratelimit

import (
	"context"
	"time"
)

const (
	// DefaultLimit is the number of admitted requests per caller and window
	DefaultLimit = 10
	// DefaultWindow is the length of the sliding window
	DefaultWindow = time.Minute

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Limiter admits or rejects requests of a caller within a sliding window.
// A rejected attempt is not recorded.
type Limiter interface {
	Admit(ctx context.Context, callerID string) (bool, error)
}

type Config struct {
	Limit  int
	Window time.Duration
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}
