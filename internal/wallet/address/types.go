package address

import (
	"context"
	"crypto/ed25519"

	"github.com/xssnick/tonutils-go/address"
	"github/chapool/jetton-signer/internal/wallet/ledger"
)

// Resolver derives the wallet address and the wallet's jetton (sub-account) addresses
type Resolver interface {
	// WalletAddress computes the wallet v4R2 address of publicKey locally
	WalletAddress(publicKey ed25519.PublicKey) (*address.Address, error)

	// SubAccountAddress asks the jetton master for owner's jetton wallet address
	SubAccountAddress(ctx context.Context, owner *address.Address, master *address.Address) (*address.Address, error)
}

// GetMethodRunner is the part of the ledger client the resolver needs
type GetMethodRunner interface {
	RunGetMethod(ctx context.Context, addr string, method string, stack []ledger.StackEntry) (*ledger.GetMethodResult, error)
}
