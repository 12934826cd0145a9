package ledger

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Account states reported by getAddressState.
const (
	StateActive        = "active"
	StateUninitialized = "uninitialized"
	StateFrozen        = "frozen"
)

// Config configures the JSON-RPC client.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Observer receives the outcome of every ledger call (metrics).
type Observer interface {
	ObserveLedgerCall(method string, duration time.Duration, err error)
}

// RPCError is an error reported by the node in the response envelope.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ledger rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	ID      uint64      `json:"id"`
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type response struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Code   int             `json:"code"`
}

// StackEntry is one get-method argument in the node's [type, value] notation.
type StackEntry []interface{}

// NumEntry encodes an integer argument.
func NumEntry(n *big.Int) StackEntry {
	if n.Sign() < 0 {
		return StackEntry{"num", "-0x" + new(big.Int).Neg(n).Text(16)}
	}
	return StackEntry{"num", "0x" + n.Text(16)}
}

// SliceEntry encodes a slice argument as a base64 BOC.
func SliceEntry(c *cell.Cell) StackEntry {
	return StackEntry{"tvm.Slice", base64.StdEncoding.EncodeToString(c.ToBOCWithFlags(false))}
}

// GetMethodResult is the result of runGetMethod.
type GetMethodResult struct {
	GasUsed  int64               `json:"gas_used"`
	ExitCode int                 `json:"exit_code"`
	Stack    [][]json.RawMessage `json:"stack"`
}

// Succeeded reports whether the get-method exited normally (exit codes 0 and 1 are success in TVM).
func (r *GetMethodResult) Succeeded() bool {
	return r.ExitCode == 0 || r.ExitCode == 1
}

// Num reads the integer at stack index i.
func (r *GetMethodResult) Num(i int) (*big.Int, error) {
	typ, raw, err := r.entry(i)
	if err != nil {
		return nil, err
	}
	if typ != "num" {
		return nil, errors.Errorf("stack entry %d is %q, not num", i, typ)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "failed to decode stack entry %d", i)
	}

	return parseNum(s)
}

// Cell reads the cell or slice at stack index i.
func (r *GetMethodResult) Cell(i int) (*cell.Cell, error) {
	typ, raw, err := r.entry(i)
	if err != nil {
		return nil, err
	}
	if typ != "cell" && typ != "slice" {
		return nil, errors.Errorf("stack entry %d is %q, not cell", i, typ)
	}

	var obj struct {
		Bytes string `json:"bytes"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Wrapf(err, "failed to decode stack entry %d", i)
	}

	boc, err := base64.StdEncoding.DecodeString(obj.Bytes)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode base64 of stack entry %d", i)
	}

	c, err := cell.FromBOC(boc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse BOC of stack entry %d", i)
	}

	return c, nil
}

func (r *GetMethodResult) entry(i int) (string, json.RawMessage, error) {
	if i < 0 || i >= len(r.Stack) {
		return "", nil, errors.Errorf("stack has %d entries, index %d requested", len(r.Stack), i)
	}

	const entryLen = 2
	if len(r.Stack[i]) != entryLen {
		return "", nil, errors.Errorf("malformed stack entry %d", i)
	}

	var typ string
	if err := json.Unmarshal(r.Stack[i][0], &typ); err != nil {
		return "", nil, errors.Wrapf(err, "failed to decode type of stack entry %d", i)
	}

	return typ, r.Stack[i][1], nil
}

func parseNum(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "0x")

	const base16 = 16
	n, ok := new(big.Int).SetString(digits, base16)
	if !ok {
		return nil, errors.Errorf("invalid num %q", s)
	}
	if neg {
		n.Neg(n)
	}

	return n, nil
}

// SendResult is the result of sendBocReturnHash.
type SendResult struct {
	Type string `json:"@type"`
	Hash string `json:"hash"`
}
