package test

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"github/chapool/jetton-signer/internal/wallet/ledger"
)

// DefaultJettonWallet is the sub-account address the default ledger reports for every owner.
var DefaultJettonWallet = address.MustParseRawAddr("0:1111111111111111111111111111111111111111111111111111111111111111")

// LedgerState is the chain as seen through the default handlers.
// Every accepted message increments Seqno and deploys the wallet.
type LedgerState struct {
	mu sync.Mutex

	BalanceNano       *big.Int
	JettonBalanceNano *big.Int
	Seqno             uint32
	Deployed          bool
	JettonDeployed    bool
}

func (s *LedgerState) CurrentSeqno() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Seqno
}

// HandleDefaults answers every method the signer uses from state.
func (f *FakeLedger) HandleDefaults(state *LedgerState) {
	f.Handle("getAddressBalance", func(_ map[string]json.RawMessage) (interface{}, error) {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.BalanceNano.String(), nil
	})

	f.Handle("getAddressState", func(params map[string]json.RawMessage) (interface{}, error) {
		var addr string
		if err := json.Unmarshal(params["address"], &addr); err != nil {
			return nil, err
		}

		state.mu.Lock()
		defer state.mu.Unlock()

		deployed := state.Deployed
		if isJettonWallet(addr) {
			deployed = state.JettonDeployed
		}
		if deployed {
			return ledger.StateActive, nil
		}
		return ledger.StateUninitialized, nil
	})

	f.Handle("runGetMethod", func(params map[string]json.RawMessage) (interface{}, error) {
		var method string
		if err := json.Unmarshal(params["method"], &method); err != nil {
			return nil, err
		}

		state.mu.Lock()
		defer state.mu.Unlock()

		switch method {
		case "seqno":
			if !state.Deployed {
				return GetMethodResult(-13), nil
			}
			return GetMethodResult(0, []interface{}{"num", ledger.NumEntry(new(big.Int).SetUint64(uint64(state.Seqno)))[1]}), nil
		case "get_wallet_address":
			boc := cell.BeginCell().MustStoreAddr(DefaultJettonWallet).EndCell().ToBOC()
			return GetMethodResult(0,
				[]interface{}{"cell", map[string]interface{}{"bytes": base64.StdEncoding.EncodeToString(boc)}},
			), nil
		case "get_wallet_data":
			if !state.JettonDeployed {
				return GetMethodResult(-13), nil
			}
			return GetMethodResult(0, []interface{}{"num", ledger.NumEntry(state.JettonBalanceNano)[1]}), nil
		default:
			return GetMethodResult(11), nil
		}
	})

	f.Handle("sendBocReturnHash", func(params map[string]json.RawMessage) (interface{}, error) {
		var boc string
		if err := json.Unmarshal(params["boc"], &boc); err != nil {
			return nil, err
		}
		raw, err := base64.StdEncoding.DecodeString(boc)
		if err != nil {
			return nil, err
		}
		c, err := cell.FromBOC(raw)
		if err != nil {
			return nil, err
		}

		state.mu.Lock()
		state.Seqno++
		state.Deployed = true
		state.mu.Unlock()

		return map[string]interface{}{"@type": "raw.extMessageInfo", "hash": base64.StdEncoding.EncodeToString(c.Hash())}, nil
	})

	f.Handle("getMasterchainInfo", func(_ map[string]json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"@type": "blocks.masterchainInfo"}, nil
	})
}

func isJettonWallet(addr string) bool {
	parsed, err := address.ParseAddr(addr)
	if err != nil {
		parsed, err = address.ParseRawAddr(addr)
		if err != nil {
			return false
		}
	}
	return parsed.StringRaw() == DefaultJettonWallet.StringRaw()
}
