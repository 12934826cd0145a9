package wallet

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github/chapool/jetton-signer/internal/util"
	walletaddress "github/chapool/jetton-signer/internal/wallet/address"
	"github/chapool/jetton-signer/internal/wallet/custody"
	"github/chapool/jetton-signer/internal/wallet/failure"
	"github/chapool/jetton-signer/internal/wallet/ledger"
	"github/chapool/jetton-signer/internal/wallet/lock"
	"github/chapool/jetton-signer/internal/wallet/sequence"
	"github/chapool/jetton-signer/internal/wallet/submit"
	"github/chapool/jetton-signer/internal/wallet/transfer"
)

const (
	MsgMissingParameters = "Missing parameters: recipient and amount required"
	MsgInvalidAmount     = "Invalid amount: must be a positive number"
	MsgInvalidRecipient  = "Invalid recipient address"

	getWalletDataMethod = "get_wallet_data"
)

// Components are the pipeline steps the service composes
type Components struct {
	Custody   custody.Custody
	Resolver  walletaddress.Resolver
	Sequencer sequence.Sequencer
	Builder   transfer.Builder
	Submitter submit.Submitter
	Ledger    Ledger
	Locker    lock.Locker
	Clock     time2.Clock
	Observer  Observer `wire:"-"`
}

type service struct {
	cfg Config
	Components
}

// NewService creates a new wallet Service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg Config, components Components) (Service, error) {
	if len(cfg.Phrase) == 0 {
		return nil, failure.New(failure.KindInvalidPhrase, "recovery phrase is not configured")
	}
	if cfg.JettonMaster == nil {
		return nil, failure.New(failure.KindInternal, "jetton master address is not configured")
	}
	if !cfg.MaxAmountPerTx.IsPositive() {
		return nil, failure.New(failure.KindInternal, "max amount per transaction must be positive")
	}
	if err := util.IsStructInitialized(&components); err != nil {
		return nil, failure.Wrap(failure.KindInternal, err, "wallet service components are incomplete")
	}

	if cfg.SequenceWaitTimeout <= 0 {
		cfg.SequenceWaitTimeout = DefaultSequenceWaitTimeout
	}
	if cfg.SequencePollInterval <= 0 {
		cfg.SequencePollInterval = DefaultSequencePollInterval
	}

	return &service{
		cfg:        cfg,
		Components: components,
	}, nil
}

// SendTokens runs validate -> derive -> wallet address -> [lock] seqno -> jetton wallet -> build -> submit
func (s *service) SendTokens(ctx context.Context, req TransferRequest) (*SendResult, error) {
	start := s.Clock.Now()
	res, err := s.sendTokens(ctx, req)

	if s.Observer != nil {
		s.Observer.ObserveTransfer(err, s.Clock.Now().Sub(start))
	}

	return res, err
}

func (s *service) sendTokens(ctx context.Context, req TransferRequest) (*SendResult, error) {
	recipient, amount, baseUnits, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	log := util.LogFromContext(ctx).With().
		Str("recipient", recipient.String()).
		Str("amount", amount.String()).
		Logger()

	keyPair, err := s.Custody.DeriveKeyPair(s.cfg.Phrase)
	if err != nil {
		log.Error().Err(err).Msg("Failed to derive signing key")
		return nil, err
	}
	defer keyPair.Wipe()

	walletAddr, err := s.Resolver.WalletAddress(keyPair.PublicKey)
	if err != nil {
		return nil, err
	}

	lockKey := walletAddr.StringRaw()
	held, unlock, err := s.Locker.Lock(ctx, lockKey)
	if err != nil {
		return nil, failure.Wrap(failure.KindInternal, err, "failed to serialize submission")
	}
	defer unlock()

	seqno, err := s.nextSequence(held, walletAddr)
	if err != nil {
		log.Error().Err(err).Msg("Failed to determine seqno")
		return nil, err
	}

	jettonWallet, err := s.Resolver.SubAccountAddress(held, walletAddr, s.cfg.JettonMaster)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve jetton wallet")
		return nil, err
	}

	payload, err := s.Builder.BuildTransferPayload(transfer.Params{
		QueryID:             uint64(s.Clock.Now().UnixMilli()), //nolint:gosec // unix millis are positive
		Amount:              baseUnits,
		Destination:         recipient,
		ResponseDestination: walletAddr,
	})
	if err != nil {
		return nil, err
	}

	// another instance may own the seqno once the lock is gone
	if cause := context.Cause(held); cause != nil {
		log.Error().Err(cause).Uint32("seqno", seqno).Msg("Submission lock released before submit")
		return nil, failure.Wrap(failure.KindInternal, cause, "failed to serialize submission")
	}

	submitted, err := s.Submitter.Submit(held, &submit.Request{
		KeyPair:       keyPair,
		WalletAddress: walletAddr,
		Destination:   jettonWallet,
		Sequence:      seqno,
		Payload:       payload,
	})
	if err != nil {
		log.Error().Err(err).Uint32("seqno", seqno).Msg("Failed to submit jetton transfer")
		return nil, err
	}

	if err := s.Locker.MarkSubmitted(ctx, lockKey, seqno, submitted.ValidUntil); err != nil {
		log.Warn().Err(err).Uint32("seqno", seqno).Msg("Failed to remember submitted seqno")
	}

	log.Info().Uint32("seqno", seqno).Str("tx_hash", submitted.TxHash).Msg("Jetton transfer submitted")

	return &SendResult{
		TxHash:     submitted.TxHash,
		Sequence:   seqno,
		Wallet:     walletAddr,
		Recipient:  recipient,
		Amount:     amount,
		ValidUntil: submitted.ValidUntil,
		Timestamp:  submitted.Timestamp,
	}, nil
}

// validate runs before any key derivation or ledger call
func (s *service) validate(req TransferRequest) (*address.Address, decimal.Decimal, *big.Int, error) {
	if req.Recipient == nil || strings.TrimSpace(*req.Recipient) == "" || req.Amount == nil || req.Amount.IsZero() {
		return nil, decimal.Zero, nil, failure.New(failure.KindValidation, MsgMissingParameters)
	}

	amount := *req.Amount
	if amount.IsNegative() {
		return nil, decimal.Zero, nil, failure.New(failure.KindValidation, MsgInvalidAmount)
	}
	if amount.GreaterThan(s.cfg.MaxAmountPerTx) {
		return nil, decimal.Zero, nil, failure.Newf(failure.KindValidation, "Amount exceeds maximum (%s)", s.cfg.MaxAmountPerTx.String())
	}

	baseUnits, err := transfer.ScaleAmount(amount, transfer.Decimals)
	if err != nil {
		return nil, decimal.Zero, nil, err
	}

	recipient, err := walletaddress.ParseUserAddress(*req.Recipient)
	if err != nil {
		return nil, decimal.Zero, nil, failure.Wrap(failure.KindValidation, err, MsgInvalidRecipient)
	}

	return recipient, amount, baseUnits, nil
}

// nextSequence refuses to reuse a seqno that was already submitted and is still valid.
// It waits for the ledger to apply the previous message instead.
func (s *service) nextSequence(ctx context.Context, walletAddr *address.Address) (uint32, error) {
	seqno, err := s.Sequencer.CurrentSequence(ctx, walletAddr)
	if err != nil {
		return 0, err
	}

	last, ok, err := s.Locker.LastSubmitted(ctx, walletAddr.StringRaw())
	if err != nil {
		return 0, failure.Wrap(failure.KindInternal, err, "failed to read last submitted seqno")
	}
	if !ok || seqno > last {
		return seqno, nil
	}

	log := util.LogFromContext(ctx).With().Uint32("seqno", seqno).Uint32("last_submitted", last).Logger()
	log.Debug().Msg("Waiting for ledger to apply previous message")

	deadline := time.NewTimer(s.cfg.SequenceWaitTimeout)
	defer deadline.Stop()

	for seqno <= last {
		poll := time.NewTimer(s.cfg.SequencePollInterval)

		select {
		case <-ctx.Done():
			poll.Stop()
			return 0, failure.Wrap(failure.KindRemoteQuery, ctx.Err(), "cancelled while waiting for seqno")
		case <-deadline.C:
			poll.Stop()
			log.Warn().Msg("Ledger did not apply previous message in time")
			return 0, failure.Newf(failure.KindRemoteQuery, "seqno %d was already submitted and is not yet applied", seqno)
		case <-poll.C:
		}

		if seqno, err = s.Sequencer.CurrentSequence(ctx, walletAddr); err != nil {
			return 0, err
		}
	}

	return seqno, nil
}

func (s *service) Balance(ctx context.Context) (*BalanceResult, error) {
	walletAddr, err := s.WalletAddress(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.Ledger.GetAddressBalance(ctx, walletAddr.String())
	if err != nil {
		util.LogFromContext(ctx).Error().Err(err).Str("wallet", walletAddr.String()).Msg("Failed to query balance")
		return nil, failure.Wrap(failure.KindRemoteQuery, err, "failed to query balance")
	}

	return &BalanceResult{
		Balance: transfer.FromBaseUnits(raw, TONDecimals),
		Address: walletAddr,
	}, nil
}

// JettonBalance reports 0 for a jetton wallet that is not deployed yet
func (s *service) JettonBalance(ctx context.Context) (*BalanceResult, error) {
	walletAddr, err := s.WalletAddress(ctx)
	if err != nil {
		return nil, err
	}

	jettonWallet, err := s.Resolver.SubAccountAddress(ctx, walletAddr, s.cfg.JettonMaster)
	if err != nil {
		return nil, err
	}

	log := util.LogFromContext(ctx).With().Str("jetton_wallet", jettonWallet.String()).Logger()

	res, err := s.Ledger.RunGetMethod(ctx, jettonWallet.String(), getWalletDataMethod, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query jetton wallet data")
		return nil, failure.Wrap(failure.KindRemoteQuery, err, "failed to query jetton wallet data")
	}

	if !res.Succeeded() {
		state, err := s.Ledger.GetAddressState(ctx, jettonWallet.String())
		if err != nil {
			return nil, failure.Wrap(failure.KindRemoteQuery, err, "failed to query jetton wallet state")
		}
		if state != ledger.StateActive {
			log.Debug().Str("state", state).Msg("Jetton wallet not deployed")
			return &BalanceResult{Balance: decimal.Zero, Address: jettonWallet}, nil
		}
		return nil, failure.Newf(failure.KindRemoteQuery, "get_wallet_data exited with code %d", res.ExitCode)
	}

	raw, err := res.Num(0)
	if err != nil {
		return nil, failure.Wrap(failure.KindRemoteQuery, err, "unexpected get_wallet_data result")
	}

	return &BalanceResult{
		Balance: transfer.FromBaseUnits(raw, transfer.Decimals),
		Address: jettonWallet,
	}, nil
}

// WalletAddress derives the key pair only to compute the address
func (s *service) WalletAddress(_ context.Context) (*address.Address, error) {
	keyPair, err := s.Custody.DeriveKeyPair(s.cfg.Phrase)
	if err != nil {
		return nil, err
	}
	defer keyPair.Wipe()

	return s.Resolver.WalletAddress(keyPair.PublicKey)
}
