package server

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/wallet/ratelimit"
)

const derivationCheckTimeout = 10 * time.Second

// initializeSigner checks the recovery phrase once at startup and starts background upkeep.
func initializeSigner(ctx context.Context, s *api.Server) error {
	checkCtx, cancel := context.WithTimeout(ctx, derivationCheckTimeout)
	defer cancel()

	walletAddr, err := s.Signer.WalletAddress(checkCtx)
	if err != nil {
		return errors.Wrap(err, "failed to derive sender wallet")
	}

	log.Info().
		Str("wallet", walletAddr.String()).
		Str("jetton_master", s.Config.Signer.JettonMaster).
		Str("max_amount_per_tx", s.Config.Signer.MaxAmountPerTx).
		Str("rate_limit_backend", s.Config.RateLimit.Backend).
		Str("mode", s.Config.Signer.Mode).
		Msg("Signer initialized")

	startLimiterSweeper(ctx, s)

	return nil
}

// Callers that stop sending leave their window behind, only the memory backend needs a sweep.
func startLimiterSweeper(ctx context.Context, s *api.Server) {
	memoryLimiter, ok := s.Limiter.(*ratelimit.MemoryLimiter)
	if !ok || s.Config.RateLimit.SweepInterval <= 0 {
		return
	}

	go func() {
		log.Info().Dur("interval", s.Config.RateLimit.SweepInterval).Msg("Starting rate limiter sweeper")
		memoryLimiter.RunSweeper(ctx, s.Config.RateLimit.SweepInterval)
		log.Info().Msg("Rate limiter sweeper stopped")
	}()
}
