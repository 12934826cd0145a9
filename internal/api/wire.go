//go:build wireinject

package api

import (
	"testing"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"github/chapool/jetton-signer/internal/config"
	"github/chapool/jetton-signer/internal/metrics"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	metrics.New,
	NewClock,
	NewLedgerClient,
	NewGuard,
	NewLimiter,
	NewLocker,
	NewSigner,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewRedisClient, NoTest)
	return new(Server), nil
}

// InitNewServerWithRedis returns a new Server instance with the given redis client (nil for the memory backend).
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithRedis(
	_ config.Server,
	_ *redis.Client,
	t ...*testing.T,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
