package api

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github/chapool/jetton-signer/internal/auth"
	"github/chapool/jetton-signer/internal/config"
	"github/chapool/jetton-signer/internal/metrics"
	"github/chapool/jetton-signer/internal/wallet"
	"github/chapool/jetton-signer/internal/wallet/address"
	"github/chapool/jetton-signer/internal/wallet/custody"
	"github/chapool/jetton-signer/internal/wallet/ledger"
	"github/chapool/jetton-signer/internal/wallet/lock"
	"github/chapool/jetton-signer/internal/wallet/ratelimit"
	"github/chapool/jetton-signer/internal/wallet/sequence"
	"github/chapool/jetton-signer/internal/wallet/submit"
	"github/chapool/jetton-signer/internal/wallet/transfer"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

func NewLedgerClient(cfg config.Server, metricsService *metrics.Service) (*ledger.Client, error) {
	return ledger.NewClient(ledger.Config{
		Endpoint: cfg.Ledger.Endpoint,
		APIKey:   cfg.Ledger.APIKey,
		Timeout:  cfg.Ledger.Timeout,
	}, metricsService)
}

// NewRedisClient returns nil unless shared state lives in redis.
func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if !cfg.UsesRedis() {
		return nil, nil //nolint:nilnil // redis is optional
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return client, nil
}

func NewGuard(cfg config.Server) *auth.Guard {
	return auth.NewGuard(cfg.Signer.APISecretKey)
}

//nolint:ireturn // Returning interface is intentional for dependency injection
func NewLimiter(cfg config.Server, clock time2.Clock, redisClient *redis.Client) (ratelimit.Limiter, error) {
	limitCfg := ratelimit.Config{Limit: cfg.RateLimit.PerMinute}

	if redisClient == nil {
		return ratelimit.New(cfg.RateLimit.Backend, limitCfg, clock, nil)
	}

	return ratelimit.New(cfg.RateLimit.Backend, limitCfg, clock, redisClient)
}

//nolint:ireturn // Returning interface is intentional for dependency injection
func NewLocker(cfg config.Server, clock time2.Clock, redisClient *redis.Client) lock.Locker {
	if cfg.UsesRedis() && redisClient != nil {
		return lock.NewRedisLocker(redisClient, clock, cfg.Redis.LockTTL)
	}

	return lock.NewLocalLocker(clock)
}

// NewSigner composes the transfer pipeline from the configured phrase, jetton master and ledger.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewSigner(
	cfg config.Server,
	ledgerClient *ledger.Client,
	locker lock.Locker,
	clock time2.Clock,
	metricsService *metrics.Service,
) (SignerService, error) {
	master, err := address.ParseUserAddress(cfg.Signer.JettonMaster)
	if err != nil {
		return nil, errors.Wrap(err, "invalid CHAMBY_JETTON_CONTRACT")
	}

	maxAmount, err := decimal.NewFromString(cfg.Signer.MaxAmountPerTx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid MAX_AMOUNT_PER_TX")
	}

	resolver, err := address.NewService(ledgerClient, cfg.Signer.JettonWalletCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create address resolver")
	}

	return wallet.NewService(wallet.Config{
		Phrase:               custody.SplitPhrase(cfg.Signer.Phrase),
		JettonMaster:         master,
		MaxAmountPerTx:       maxAmount,
		SequenceWaitTimeout:  cfg.Signer.SequenceWaitTimeout,
		SequencePollInterval: cfg.Signer.SequencePollInterval,
	}, wallet.Components{
		Custody:   custody.NewService(),
		Resolver:  resolver,
		Sequencer: sequence.NewService(ledgerClient),
		Builder:   transfer.NewBuilder(),
		Submitter: submit.NewService(ledgerClient, clock, cfg.Signer.MessageTTL),
		Ledger:    ledgerClient,
		Locker:    locker,
		Clock:     clock,
		Observer:  metricsService,
	})
}
