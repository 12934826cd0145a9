package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github/chapool/jetton-signer/internal/util"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// Client is a JSON-RPC client for a toncenter compatible node (v2 jsonRPC endpoint).
type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	observer   Observer
	nextID     atomic.Uint64
}

// NewClient creates a new ledger client
func NewClient(cfg Config, observer Observer) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("ledger endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: &http.Client{},
		observer:   observer,
	}, nil
}

// Call performs one JSON-RPC call bounded by the client timeout and decodes the result into out.
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveLedgerCall(method, time.Since(start), err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(request{
		ID:      c.nextID.Add(1),
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create rpc request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "rpc call %s failed", method)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return errors.Wrapf(err, "failed to read rpc response of %s", method)
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if res.StatusCode != http.StatusOK {
			return &RPCError{Code: res.StatusCode, Message: http.StatusText(res.StatusCode)}
		}
		return errors.Wrapf(err, "failed to decode rpc response of %s", method)
	}

	if !envelope.OK {
		code := envelope.Code
		if code == 0 {
			code = res.StatusCode
		}
		return &RPCError{Code: code, Message: envelope.Error}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return errors.Wrapf(err, "failed to decode result of %s", method)
	}

	return nil
}

// GetAddressBalance returns the native balance of addr in nanotons.
func (c *Client) GetAddressBalance(ctx context.Context, addr string) (*big.Int, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "getAddressBalance", map[string]interface{}{"address": addr}, &raw); err != nil {
		return nil, err
	}

	// the node returns the balance as a decimal string, older versions as a number
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}

	const base10 = 10
	balance, ok := new(big.Int).SetString(s, base10)
	if !ok {
		return nil, errors.Errorf("invalid balance %q", s)
	}

	return balance, nil
}

// GetAddressState returns one of StateActive, StateUninitialized or StateFrozen.
func (c *Client) GetAddressState(ctx context.Context, addr string) (string, error) {
	var state string
	if err := c.Call(ctx, "getAddressState", map[string]interface{}{"address": addr}, &state); err != nil {
		return "", err
	}

	return state, nil
}

// RunGetMethod executes a get-method of the contract at addr.
func (c *Client) RunGetMethod(ctx context.Context, addr string, method string, stack []StackEntry) (*GetMethodResult, error) {
	if stack == nil {
		stack = []StackEntry{}
	}

	var result GetMethodResult
	err := c.Call(ctx, "runGetMethod", map[string]interface{}{
		"address": addr,
		"method":  method,
		"stack":   stack,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// SendBoc broadcasts a serialized external message and returns the hash reported by the node.
func (c *Client) SendBoc(ctx context.Context, boc []byte) (*SendResult, error) {
	var result SendResult
	err := c.Call(ctx, "sendBocReturnHash", map[string]interface{}{
		"boc": base64.StdEncoding.EncodeToString(boc),
	}, &result)
	if err != nil {
		return nil, err
	}

	util.LogFromContext(ctx).Debug().Str("hash", result.Hash).Msg("Message accepted by ledger")

	return &result, nil
}

// Ping checks that the node answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.Call(ctx, "getMasterchainInfo", map[string]interface{}{}, nil)
}
