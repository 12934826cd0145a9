package sequence

import (
	"context"

	"github.com/xssnick/tonutils-go/address"
	"github/chapool/jetton-signer/internal/util"
	"github/chapool/jetton-signer/internal/wallet/failure"
	"github/chapool/jetton-signer/internal/wallet/ledger"
)

// Sequencer reads the wallet's current seqno. Values are never cached.
type Sequencer interface {
	CurrentSequence(ctx context.Context, walletAddr *address.Address) (uint32, error)
}

// Ledger is the part of the ledger client the sequencer needs
type Ledger interface {
	RunGetMethod(ctx context.Context, addr string, method string, stack []ledger.StackEntry) (*ledger.GetMethodResult, error)
	GetAddressState(ctx context.Context, addr string) (string, error)
}

type service struct {
	ledger Ledger
}

// NewService creates a new Sequencer
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(ledgerClient Ledger) Sequencer {
	return &service{ledger: ledgerClient}
}

// CurrentSequence runs the wallet's seqno get-method. An undeployed wallet yields 0.
func (s *service) CurrentSequence(ctx context.Context, walletAddr *address.Address) (uint32, error) {
	if walletAddr == nil {
		return 0, failure.New(failure.KindInternal, "wallet address is required")
	}

	log := util.LogFromContext(ctx).With().Str("wallet", walletAddr.String()).Logger()

	res, err := s.ledger.RunGetMethod(ctx, walletAddr.String(), "seqno", nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query seqno")
		return 0, failure.Wrap(failure.KindRemoteQuery, err, "failed to query seqno")
	}

	if !res.Succeeded() {
		// a get-method of an account without code fails, that is the only case where 0 is implied
		state, err := s.ledger.GetAddressState(ctx, walletAddr.String())
		if err != nil {
			log.Error().Err(err).Msg("Failed to query wallet state")
			return 0, failure.Wrap(failure.KindRemoteQuery, err, "failed to query wallet state")
		}

		if state != ledger.StateActive {
			log.Info().Str("state", state).Msg("Wallet not deployed, using seqno 0")
			return 0, nil
		}

		return 0, failure.Newf(failure.KindRemoteQuery, "seqno get-method exited with code %d", res.ExitCode)
	}

	n, err := res.Num(0)
	if err != nil {
		return 0, failure.Wrap(failure.KindRemoteQuery, err, "unexpected seqno result")
	}

	if n.Sign() < 0 || !n.IsUint64() || n.Uint64() > uint64(^uint32(0)) {
		return 0, failure.Newf(failure.KindRemoteQuery, "seqno %s out of range", n.String())
	}

	return uint32(n.Uint64()), nil
}
