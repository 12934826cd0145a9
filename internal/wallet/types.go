package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github/chapool/jetton-signer/internal/wallet/ledger"
)

// TONDecimals is the precision of the native coin balance.
const TONDecimals = 9

const (
	DefaultSequenceWaitTimeout  = 30 * time.Second
	DefaultSequencePollInterval = time.Second
)

// Service signs and submits jetton transfers of the custodial wallet
type Service interface {
	// SendTokens validates req and transfers the jettons to the recipient
	SendTokens(ctx context.Context, req TransferRequest) (*SendResult, error)

	// Balance returns the native coin balance of the wallet
	Balance(ctx context.Context) (*BalanceResult, error)

	// JettonBalance returns the jetton balance held by the wallet's jetton wallet
	JettonBalance(ctx context.Context) (*BalanceResult, error)

	// WalletAddress returns the address of the custodial wallet
	WalletAddress(ctx context.Context) (*address.Address, error)
}

// Ledger is the part of the ledger client the service queries directly
type Ledger interface {
	GetAddressBalance(ctx context.Context, addr string) (*big.Int, error)
	GetAddressState(ctx context.Context, addr string) (string, error)
	RunGetMethod(ctx context.Context, addr string, method string, stack []ledger.StackEntry) (*ledger.GetMethodResult, error)
}

// Observer receives the outcome of every transfer attempt
type Observer interface {
	ObserveTransfer(err error, duration time.Duration)
}

type Config struct {
	// Phrase is the recovery phrase of the wallet. It is never logged.
	Phrase         []string
	JettonMaster   *address.Address
	MaxAmountPerTx decimal.Decimal

	SequenceWaitTimeout  time.Duration
	SequencePollInterval time.Duration
}

// TransferRequest is the decoded send request. Missing fields are nil.
type TransferRequest struct {
	Recipient *string
	Amount    *decimal.Decimal
}

type SendResult struct {
	TxHash     string
	Sequence   uint32
	Wallet     *address.Address
	Recipient  *address.Address
	Amount     decimal.Decimal
	ValidUntil time.Time
	Timestamp  time.Time
}

type BalanceResult struct {
	Balance decimal.Decimal
	Address *address.Address
}
