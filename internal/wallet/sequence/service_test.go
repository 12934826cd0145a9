package sequence_test

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github/chapool/jetton-signer/internal/test"
	"github/chapool/jetton-signer/internal/wallet/failure"
	"github/chapool/jetton-signer/internal/wallet/ledger"
	"github/chapool/jetton-signer/internal/wallet/sequence"
)

var walletAddr = address.MustParseRawAddr("0:3333333333333333333333333333333333333333333333333333333333333333")

func newSequencer(t *testing.T, fake *test.FakeLedger) sequence.Sequencer {
	t.Helper()

	client, err := ledger.NewClient(fake.Config(), nil)
	require.NoError(t, err)

	return sequence.NewService(client)
}

func TestCurrentSequence(t *testing.T) {
	fake := test.NewFakeLedger(t)
	fake.Handle("runGetMethod", func(params map[string]json.RawMessage) (interface{}, error) {
		return test.GetMethodResult(0, []interface{}{"num", "0x1f"}), nil
	})

	seqno, err := newSequencer(t, fake).CurrentSequence(context.Background(), walletAddr)
	require.NoError(t, err)
	assert.Equal(t, uint32(31), seqno)

	calls := fake.Calls("runGetMethod")
	require.Len(t, calls, 1)
	assert.Equal(t, "seqno", test.ParamString(t, calls[0], "method"))
	assert.Equal(t, walletAddr.String(), test.ParamString(t, calls[0], "address"))
	assert.Empty(t, fake.Calls("getAddressState"))
}

func TestCurrentSequenceNeverCached(t *testing.T) {
	fake := test.NewFakeLedger(t)
	next := 4
	fake.Handle("runGetMethod", func(params map[string]json.RawMessage) (interface{}, error) {
		next++
		return test.GetMethodResult(0, []interface{}{"num", ledger.NumEntry(big.NewInt(int64(next)))[1]}), nil
	})

	seq := newSequencer(t, fake)

	first, err := seq.CurrentSequence(context.Background(), walletAddr)
	require.NoError(t, err)
	second, err := seq.CurrentSequence(context.Background(), walletAddr)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), first)
	assert.Equal(t, uint32(6), second)
	assert.Len(t, fake.Calls("runGetMethod"), 2)
}

func TestCurrentSequenceUndeployedIsZero(t *testing.T) {
	fake := test.NewFakeLedger(t)
	fake.Handle("runGetMethod", func(params map[string]json.RawMessage) (interface{}, error) {
		return test.GetMethodResult(-13), nil
	})
	fake.Handle("getAddressState", func(params map[string]json.RawMessage) (interface{}, error) {
		return ledger.StateUninitialized, nil
	})

	seqno, err := newSequencer(t, fake).CurrentSequence(context.Background(), walletAddr)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), seqno)
}

func TestCurrentSequenceActiveButFailing(t *testing.T) {
	fake := test.NewFakeLedger(t)
	fake.Handle("runGetMethod", func(params map[string]json.RawMessage) (interface{}, error) {
		return test.GetMethodResult(11), nil
	})
	fake.Handle("getAddressState", func(params map[string]json.RawMessage) (interface{}, error) {
		return ledger.StateActive, nil
	})

	_, err := newSequencer(t, fake).CurrentSequence(context.Background(), walletAddr)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindRemoteQuery))
}

func TestCurrentSequenceNetworkFailure(t *testing.T) {
	fake := test.NewFakeLedger(t)
	fake.Handle("runGetMethod", func(params map[string]json.RawMessage) (interface{}, error) {
		return nil, &ledger.RPCError{Code: 502, Message: "bad gateway"}
	})

	_, err := newSequencer(t, fake).CurrentSequence(context.Background(), walletAddr)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindRemoteQuery))
	assert.Empty(t, fake.Calls("getAddressState"))
}

func TestCurrentSequenceStateQueryFailure(t *testing.T) {
	fake := test.NewFakeLedger(t)
	fake.Handle("runGetMethod", func(params map[string]json.RawMessage) (interface{}, error) {
		return test.GetMethodResult(-13), nil
	})
	fake.Handle("getAddressState", func(params map[string]json.RawMessage) (interface{}, error) {
		return nil, &ledger.RPCError{Code: 500, Message: "timeout"}
	})

	_, err := newSequencer(t, fake).CurrentSequence(context.Background(), walletAddr)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindRemoteQuery))
}
