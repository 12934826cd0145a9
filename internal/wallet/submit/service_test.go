package submit_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tonaddress "github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"github/chapool/jetton-signer/internal/test"
	"github/chapool/jetton-signer/internal/wallet/address"
	"github/chapool/jetton-signer/internal/wallet/custody"
	"github/chapool/jetton-signer/internal/wallet/failure"
	"github/chapool/jetton-signer/internal/wallet/ledger"
	"github/chapool/jetton-signer/internal/wallet/submit"
	"github/chapool/jetton-signer/internal/wallet/transfer"
)

var jettonWallet = tonaddress.MustParseRawAddr("0:5555555555555555555555555555555555555555555555555555555555555555")

type fixture struct {
	fake      *test.FakeLedger
	submitter submit.Submitter
	clock     *time2.MockClock
	keyPair   *custody.KeyPair
	wallet    *tonaddress.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	walletAddr, err := wallet.AddressFromPubKey(pub, address.WalletVersion, wallet.DefaultSubwallet)
	require.NoError(t, err)

	fake := test.NewFakeLedger(t)
	fake.Handle("sendBocReturnHash", func(params map[string]json.RawMessage) (interface{}, error) {
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
		return map[string]interface{}{"@type": "raw.extMessageInfo", "hash": base64.StdEncoding.EncodeToString(c.Hash())}, nil
	})

	client, err := ledger.NewClient(fake.Config(), nil)
	require.NoError(t, err)

	clock := time2.NewMockClock(time.Unix(1700000000, 0))

	return &fixture{
		fake:      fake,
		submitter: submit.NewService(client, clock, time.Minute),
		clock:     clock,
		keyPair:   &custody.KeyPair{PublicKey: pub, PrivateKey: priv},
		wallet:    walletAddr,
	}
}

func (f *fixture) sentMessage(t *testing.T) *cell.Cell {
	t.Helper()

	calls := f.fake.Calls("sendBocReturnHash")
	require.Len(t, calls, 1)

	raw, err := base64.StdEncoding.DecodeString(test.ParamString(t, calls[0], "boc"))
	require.NoError(t, err)

	c, err := cell.FromBOC(raw)
	require.NoError(t, err)

	return c
}

type parsedMessage struct {
	dest       *tonaddress.Address
	hasInit    bool
	signature  []byte
	signed     *cell.Cell
	subwallet  uint64
	validUntil uint64
	seqno      uint64
	op         uint64
	mode       uint64
	internal   *cell.Cell
}

func parse(t *testing.T, c *cell.Cell) parsedMessage {
	t.Helper()

	var p parsedMessage
	s := c.BeginParse()

	tag, err := s.LoadUInt(2)
	require.NoError(t, err)
	require.Equal(t, uint64(0b10), tag)
	src, err := s.LoadUInt(2)
	require.NoError(t, err)
	require.Zero(t, src)
	p.dest, err = s.LoadAddr()
	require.NoError(t, err)
	_, err = s.LoadBigCoins()
	require.NoError(t, err)

	p.hasInit, err = s.LoadBoolBit()
	require.NoError(t, err)
	if p.hasInit {
		asRef, err := s.LoadBoolBit()
		require.NoError(t, err)
		require.True(t, asRef)
		_, err = s.LoadRefCell()
		require.NoError(t, err)
	}

	bodyAsRef, err := s.LoadBoolBit()
	require.NoError(t, err)
	require.True(t, bodyAsRef)
	body, err := s.LoadRefCell()
	require.NoError(t, err)

	bs := body.BeginParse()
	p.signature, err = bs.LoadSlice(512)
	require.NoError(t, err)
	p.signed, err = bs.ToCell()
	require.NoError(t, err)

	ss := p.signed.BeginParse()
	p.subwallet = ss.MustLoadUInt(32)
	p.validUntil = ss.MustLoadUInt(32)
	p.seqno = ss.MustLoadUInt(32)
	p.op = ss.MustLoadUInt(8)
	p.mode = ss.MustLoadUInt(8)
	p.internal, err = ss.LoadRefCell()
	require.NoError(t, err)

	return p
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	payload := cell.BeginCell().MustStoreUInt(0x0f8a7ea5, 32).EndCell()

	res, err := f.submitter.Submit(context.Background(), &submit.Request{
		KeyPair:       f.keyPair,
		WalletAddress: f.wallet,
		Destination:   jettonWallet,
		Sequence:      7,
		Payload:       payload,
	})
	require.NoError(t, err)

	msg := f.sentMessage(t)
	assert.Equal(t, hex.EncodeToString(msg.Hash()), res.TxHash)
	assert.Equal(t, uint32(7), res.Sequence)
	assert.Equal(t, f.clock.Now(), res.Timestamp)
	assert.Equal(t, f.clock.Now().Add(time.Minute), res.ValidUntil)

	p := parse(t, msg)
	assert.Equal(t, f.wallet.StringRaw(), p.dest.StringRaw())
	assert.False(t, p.hasInit)
	assert.True(t, ed25519.Verify(f.keyPair.PublicKey, p.signed.Hash(), p.signature))
	assert.Equal(t, uint64(wallet.DefaultSubwallet), p.subwallet)
	assert.Equal(t, uint64(f.clock.Now().Add(time.Minute).Unix()), p.validUntil)
	assert.Equal(t, uint64(7), p.seqno)
	assert.Zero(t, p.op)
	assert.Equal(t, uint64(submit.SendMode), p.mode)

	var internal tlb.InternalMessage
	require.NoError(t, tlb.LoadFromCell(&internal, p.internal.BeginParse()))
	assert.True(t, internal.IHRDisabled)
	assert.True(t, internal.Bounce)
	assert.False(t, internal.Bounced)
	assert.Nil(t, internal.StateInit)
	assert.Equal(t, jettonWallet.StringRaw(), internal.DstAddr.StringRaw())
	assert.Equal(t, "50000000", internal.Amount.Nano().String())
	require.NotNil(t, internal.Body)
	assert.Equal(t, payload.Hash(), internal.Body.Hash())
}

func TestSubmitFullTransferBodyGoesByReference(t *testing.T) {
	f := newFixture(t)
	payload, err := transfer.NewBuilder().BuildTransferPayload(transfer.Params{
		QueryID:             1,
		Amount:              big.NewInt(1_000_000_000),
		Destination:         jettonWallet,
		ResponseDestination: f.wallet,
	})
	require.NoError(t, err)

	_, err = f.submitter.Submit(context.Background(), &submit.Request{
		KeyPair:       f.keyPair,
		WalletAddress: f.wallet,
		Destination:   jettonWallet,
		Sequence:      3,
		Payload:       payload,
	})
	require.NoError(t, err)

	p := parse(t, f.sentMessage(t))
	require.EqualValues(t, 1, p.internal.RefsNum())
	ref, err := p.internal.PeekRef(0)
	require.NoError(t, err)
	assert.Equal(t, payload.Hash(), ref.Hash())
}

func TestSubmitFirstMessageDeploysWallet(t *testing.T) {
	f := newFixture(t)

	_, err := f.submitter.Submit(context.Background(), &submit.Request{
		KeyPair:       f.keyPair,
		WalletAddress: f.wallet,
		Destination:   jettonWallet,
		Sequence:      0,
		Payload:       cell.BeginCell().EndCell(),
	})
	require.NoError(t, err)

	p := parse(t, f.sentMessage(t))
	assert.True(t, p.hasInit)
	assert.Zero(t, p.seqno)
}

func TestSubmitRejectsForeignWallet(t *testing.T) {
	f := newFixture(t)

	_, err := f.submitter.Submit(context.Background(), &submit.Request{
		KeyPair:       f.keyPair,
		WalletAddress: jettonWallet,
		Destination:   jettonWallet,
		Sequence:      1,
		Payload:       cell.BeginCell().EndCell(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
	assert.Empty(t, f.fake.Calls())
}

func TestSubmitLedgerRejection(t *testing.T) {
	f := newFixture(t)
	f.fake.Handle("sendBocReturnHash", func(params map[string]json.RawMessage) (interface{}, error) {
		return nil, &ledger.RPCError{Code: 500, Message: "Failed to unpack account state"}
	})

	_, err := f.submitter.Submit(context.Background(), &submit.Request{
		KeyPair:       f.keyPair,
		WalletAddress: f.wallet,
		Destination:   jettonWallet,
		Sequence:      3,
		Payload:       cell.BeginCell().EndCell(),
	})
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindSubmission))
	assert.Len(t, f.fake.Calls("sendBocReturnHash"), 1)
}

func TestSubmitWithoutKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.submitter.Submit(context.Background(), &submit.Request{
		WalletAddress: f.wallet,
		Destination:   jettonWallet,
		Payload:       cell.BeginCell().EndCell(),
	})
	require.Error(t, err)
	assert.Empty(t, f.fake.Calls())
}
