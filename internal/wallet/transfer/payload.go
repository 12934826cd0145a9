package transfer

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/jetton"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"github/chapool/jetton-signer/internal/wallet/failure"
)

const (
	// OpTransfer is the TEP-74 jetton transfer opcode.
	OpTransfer = 0x0f8a7ea5

	// Decimals of the jetton; whole units are scaled by 10^Decimals.
	Decimals = 9
)

// DefaultForwardAmount is forwarded to the recipient's jetton wallet to pay for the notification.
var DefaultForwardAmount = tlb.MustFromTON("0.01")

// Params describes one jetton transfer instruction. Amounts are in base units / nanotons.
type Params struct {
	QueryID             uint64
	Amount              *big.Int
	Destination         *address.Address
	ResponseDestination *address.Address
	ForwardAmount       *big.Int
}

// Builder encodes jetton transfer payloads
type Builder interface {
	BuildTransferPayload(p Params) (*cell.Cell, error)
}

type builder struct{}

// NewBuilder creates a new transfer payload builder
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewBuilder() Builder {
	return &builder{}
}

// BuildTransferPayload encodes a TEP-74 transfer with no custom payload
// and an empty inline forward payload.
func (b *builder) BuildTransferPayload(p Params) (*cell.Cell, error) {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return nil, failure.New(failure.KindEncoding, "transfer amount must be positive")
	}
	if p.Destination == nil || p.ResponseDestination == nil {
		return nil, failure.New(failure.KindEncoding, "destination and response addresses are required")
	}

	forward := p.ForwardAmount
	if forward == nil {
		forward = DefaultForwardAmount.Nano()
	}

	amount, err := tlb.FromNano(p.Amount, Decimals)
	if err != nil {
		return nil, failure.Wrap(failure.KindEncoding, err, "failed to encode jetton amount")
	}
	forwardAmount, err := tlb.FromNano(forward, 9)
	if err != nil {
		return nil, failure.Wrap(failure.KindEncoding, err, "failed to encode forward amount")
	}

	body, err := tlb.ToCell(jetton.TransferPayload{
		QueryID:             p.QueryID,
		Amount:              amount,
		Destination:         p.Destination,
		ResponseDestination: p.ResponseDestination,
		ForwardTONAmount:    forwardAmount,
		ForwardPayload:      cell.BeginCell().EndCell(),
	})
	if err != nil {
		return nil, failure.Wrap(failure.KindEncoding, err, "failed to encode jetton transfer")
	}

	return body, nil
}

// ScaleAmount converts whole token units to base units exactly.
func ScaleAmount(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if decimals < 0 {
		return nil, failure.Newf(failure.KindInternal, "invalid decimals %d", decimals)
	}

	scaled := amount.Shift(decimals)

	if !scaled.IsInteger() {
		return nil, failure.Newf(failure.KindValidation, "amount has more than %d decimal places", decimals)
	}

	return scaled.BigInt(), nil
}

// FromBaseUnits converts base units to whole token units exactly.
func FromBaseUnits(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}
