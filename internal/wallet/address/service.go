package address

import (
	"context"
	"crypto/ed25519"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"github/chapool/jetton-signer/internal/util"
	"github/chapool/jetton-signer/internal/wallet/failure"
	"github/chapool/jetton-signer/internal/wallet/ledger"
)

const getWalletAddressMethod = "get_wallet_address"

// WalletVersion is the wallet contract template every address is computed for.
var WalletVersion = wallet.V4R2

type service struct {
	ledger GetMethodRunner
	cache  *lru.Cache
}

// NewService creates a new address resolver. A cacheSize of 0 disables caching of jetton wallet addresses.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(ledgerClient GetMethodRunner, cacheSize int) (Resolver, error) {
	s := &service{ledger: ledgerClient}

	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create jetton wallet cache")
		}
		s.cache = cache
	}

	return s, nil
}

// WalletAddress computes the address of the v4R2 wallet (default subwallet) holding publicKey
func (s *service) WalletAddress(publicKey ed25519.PublicKey) (*address.Address, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, failure.New(failure.KindInternal, "invalid public key length")
	}

	addr, err := wallet.AddressFromPubKey(publicKey, WalletVersion, wallet.DefaultSubwallet)
	if err != nil {
		return nil, failure.Wrap(failure.KindInternal, err, "failed to compute wallet address")
	}

	return addr, nil
}

// SubAccountAddress runs get_wallet_address on the jetton master. The result does not imply the jetton wallet is deployed.
func (s *service) SubAccountAddress(ctx context.Context, owner *address.Address, master *address.Address) (*address.Address, error) {
	if owner == nil || master == nil {
		return nil, failure.New(failure.KindInternal, "owner and master addresses are required")
	}

	log := util.LogFromContext(ctx)
	key := master.StringRaw() + "|" + owner.StringRaw()

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if addr, ok := cached.(*address.Address); ok {
				return addr, nil
			}
		}
	}

	ownerSlice := cell.BeginCell().MustStoreAddr(owner).EndCell()

	res, err := s.ledger.RunGetMethod(ctx, master.String(), getWalletAddressMethod, []ledger.StackEntry{ledger.SliceEntry(ownerSlice)})
	if err != nil {
		log.Error().Err(err).Str("master", master.String()).Msg("Failed to query jetton wallet address")
		return nil, failure.Wrap(failure.KindRemoteQuery, err, "failed to query jetton wallet address")
	}

	if !res.Succeeded() {
		return nil, failure.Newf(failure.KindRemoteQuery, "get_wallet_address exited with code %d", res.ExitCode)
	}

	c, err := res.Cell(0)
	if err != nil {
		return nil, failure.Wrap(failure.KindRemoteQuery, err, "unexpected get_wallet_address result")
	}

	addr, err := c.BeginParse().LoadAddr()
	if err != nil {
		return nil, failure.Wrap(failure.KindRemoteQuery, err, "failed to parse jetton wallet address")
	}

	if s.cache != nil {
		s.cache.Add(key, addr)
	}

	return addr, nil
}

// ParseUserAddress accepts user-friendly (base64) and raw (workchain:hex) addresses.
func ParseUserAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, failure.New(failure.KindEncoding, "address is empty")
	}

	if strings.Contains(s, ":") {
		addr, err := address.ParseRawAddr(s)
		if err != nil {
			return nil, failure.Wrap(failure.KindEncoding, err, "invalid raw address")
		}
		return addr, nil
	}

	addr, err := address.ParseAddr(s)
	if err != nil {
		return nil, failure.Wrap(failure.KindEncoding, err, "invalid address")
	}

	return addr, nil
}
