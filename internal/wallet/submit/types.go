package submit

import (
	"context"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"github/chapool/jetton-signer/internal/wallet/custody"
	"github/chapool/jetton-signer/internal/wallet/ledger"
)

// Submitter signs and broadcasts wallet messages
type Submitter interface {
	// Submit signs one internal message with the wallet key and sends it as an external message.
	// It is never retried: once the ledger accepted it the seqno is consumed.
	Submit(ctx context.Context, req *Request) (*Result, error)
}

// Sender is the part of the ledger client the submitter needs
type Sender interface {
	SendBoc(ctx context.Context, boc []byte) (*ledger.SendResult, error)
}

// Request describes one wallet transfer carrying Payload to Destination
type Request struct {
	KeyPair       *custody.KeyPair
	WalletAddress *address.Address
	Destination   *address.Address // sender's jetton wallet
	Sequence      uint32
	Payload       *cell.Cell
	Value         *big.Int // nanotons attached to fund the jetton wallet's execution, defaults to DefaultValue
}

// Result describes a message accepted into the ledger's queue. Acceptance is not inclusion.
type Result struct {
	TxHash     string
	Sequence   uint32
	ValidUntil time.Time
	Timestamp  time.Time
}
