package submit

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"github/chapool/jetton-signer/internal/util"
	"github/chapool/jetton-signer/internal/wallet/address"
	"github/chapool/jetton-signer/internal/wallet/failure"
)

const (
	// SendMode 3: pay transfer fees separately, ignore action phase errors
	SendMode = 3

	// DefaultMessageTTL bounds how long a signed message stays valid
	DefaultMessageTTL = 60 * time.Second

	opSimpleSend = 0
)

// DefaultValue is attached to the internal message to pay for the jetton wallet's execution.
var DefaultValue = tlb.MustFromTON("0.05")

type service struct {
	ledger     Sender
	clock      time2.Clock
	messageTTL time.Duration
}

// NewService creates a new Submitter
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(ledgerClient Sender, clock time2.Clock, messageTTL time.Duration) Submitter {
	if messageTTL <= 0 {
		messageTTL = DefaultMessageTTL
	}

	return &service{
		ledger:     ledgerClient,
		clock:      clock,
		messageTTL: messageTTL,
	}
}

// Submit builds, signs and broadcasts the wallet v4R2 external message
func (s *service) Submit(ctx context.Context, req *Request) (*Result, error) {
	log := util.LogFromContext(ctx)

	msg, validUntil, err := s.buildExternalMessage(req)
	if err != nil {
		return nil, err
	}

	txHash := hex.EncodeToString(msg.Hash())

	res, err := s.ledger.SendBoc(ctx, msg.ToBOCWithFlags(false))
	if err != nil {
		log.Error().Err(err).Uint32("seqno", req.Sequence).Str("msg_hash", txHash).Msg("Ledger rejected message")
		return nil, failure.Wrap(failure.KindSubmission, err, "failed to submit transaction")
	}

	if reported, decodeErr := base64.StdEncoding.DecodeString(res.Hash); decodeErr == nil && len(reported) > 0 {
		if reportedHex := hex.EncodeToString(reported); reportedHex != txHash {
			log.Warn().Str("msg_hash", txHash).Str("reported_hash", reportedHex).Msg("Ledger reported a different message hash")
			txHash = reportedHex
		}
	}

	log.Info().Uint32("seqno", req.Sequence).Str("msg_hash", txHash).Msg("Message accepted by ledger")

	return &Result{
		TxHash:     txHash,
		Sequence:   req.Sequence,
		ValidUntil: validUntil,
		Timestamp:  s.clock.Now(),
	}, nil
}

func (s *service) buildExternalMessage(req *Request) (*cell.Cell, time.Time, error) {
	if req == nil || req.KeyPair == nil || len(req.KeyPair.PrivateKey) != ed25519.PrivateKeySize {
		return nil, time.Time{}, failure.New(failure.KindInternal, "signing key is not available")
	}
	if req.WalletAddress == nil || req.Destination == nil || req.Payload == nil {
		return nil, time.Time{}, failure.New(failure.KindInternal, "wallet, destination and payload are required")
	}

	// refuse to sign for an address the key does not control
	derived, err := wallet.AddressFromPubKey(req.KeyPair.PublicKey, address.WalletVersion, wallet.DefaultSubwallet)
	if err != nil {
		return nil, time.Time{}, failure.Wrap(failure.KindInternal, err, "failed to compute wallet address")
	}
	if derived.StringRaw() != req.WalletAddress.StringRaw() {
		return nil, time.Time{}, failure.New(failure.KindInternal, "wallet address does not match signing key")
	}

	value := req.Value
	if value == nil {
		value = DefaultValue.Nano()
	}

	amount, err := tlb.FromNano(value, 9)
	if err != nil {
		return nil, time.Time{}, failure.Wrap(failure.KindEncoding, err, "failed to encode message value")
	}

	internal, err := tlb.ToCell(&tlb.InternalMessage{
		IHRDisabled: true,
		Bounce:      true,
		DstAddr:     req.Destination,
		Amount:      amount,
		Body:        req.Payload,
	})
	if err != nil {
		return nil, time.Time{}, failure.Wrap(failure.KindEncoding, err, "failed to encode internal message")
	}

	validUntil := s.clock.Now().Add(s.messageTTL).Truncate(time.Second)

	signing := cell.BeginCell().
		MustStoreUInt(uint64(wallet.DefaultSubwallet), 32).
		MustStoreUInt(uint64(validUntil.Unix()), 32).
		MustStoreUInt(uint64(req.Sequence), 32).
		MustStoreUInt(opSimpleSend, 8).
		MustStoreUInt(SendMode, 8).
		MustStoreRef(internal)

	signature := ed25519.Sign(req.KeyPair.PrivateKey, signing.EndCell().Hash())

	body := cell.BeginCell().
		MustStoreSlice(signature, 512).
		MustStoreBuilder(signing).
		EndCell()

	ext := cell.BeginCell().
		MustStoreUInt(0b10, 2). // ext_in_msg_info$10
		MustStoreUInt(0, 2).    // src: addr_none
		MustStoreAddr(req.WalletAddress).
		MustStoreCoins(0) // import_fee

	// the first message deploys the wallet
	if req.Sequence == 0 {
		stateInit, err := wallet.GetStateInit(req.KeyPair.PublicKey, address.WalletVersion, wallet.DefaultSubwallet)
		if err != nil {
			return nil, time.Time{}, failure.Wrap(failure.KindInternal, err, "failed to build wallet state init")
		}
		stateInitCell, err := tlb.ToCell(stateInit)
		if err != nil {
			return nil, time.Time{}, failure.Wrap(failure.KindEncoding, err, "failed to encode wallet state init")
		}
		ext.MustStoreBoolBit(true).MustStoreBoolBit(true).MustStoreRef(stateInitCell)
	} else {
		ext.MustStoreBoolBit(false)
	}

	ext.MustStoreBoolBit(true).MustStoreRef(body)

	return ext.EndCell(), validUntil, nil
}
