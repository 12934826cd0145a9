package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github/chapool/jetton-signer/internal/wallet/ledger"
)

// LedgerCall is one JSON-RPC call received by FakeLedger.
type LedgerCall struct {
	Method string
	Params map[string]json.RawMessage
	APIKey string
}

// LedgerHandler answers one method. Returning a *ledger.RPCError produces an ok:false envelope.
type LedgerHandler func(params map[string]json.RawMessage) (interface{}, error)

// FakeLedger is an in-process toncenter style JSON-RPC node.
type FakeLedger struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]LedgerHandler
	calls    []LedgerCall
}

func NewFakeLedger(t *testing.T) *FakeLedger {
	t.Helper()

	f := &FakeLedger{handlers: make(map[string]LedgerHandler)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)

	return f
}

func (f *FakeLedger) URL() string {
	return f.Server.URL
}

// Config returns a ledger config pointing at the fake node.
func (f *FakeLedger) Config() ledger.Config {
	return ledger.Config{Endpoint: f.URL(), APIKey: "test-ledger-key"}
}

func (f *FakeLedger) Handle(method string, h LedgerHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// Calls returns all calls received so far, optionally filtered by method.
func (f *FakeLedger) Calls(method ...string) []LedgerCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(method) == 0 {
		return append([]LedgerCall(nil), f.calls...)
	}

	var res []LedgerCall
	for _, c := range f.calls {
		if c.Method == method[0] {
			res = append(res, c)
		}
	}
	return res
}

func (f *FakeLedger) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string                     `json:"method"`
		Params map[string]json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, LedgerCall{Method: req.Method, Params: req.Params, APIKey: r.Header.Get("X-API-Key")})
	h, ok := f.handlers[req.Method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if !ok {
		writeEnvelope(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "method not found", "code": http.StatusNotFound})
		return
	}

	result, err := h(req.Params)
	if err != nil {
		rpcErr, isRPC := err.(*ledger.RPCError) //nolint:errorlint // handlers return the error directly
		if !isRPC {
			rpcErr = &ledger.RPCError{Code: http.StatusInternalServerError, Message: err.Error()}
		}
		writeEnvelope(w, rpcErr.Code, map[string]interface{}{"ok": false, "error": rpcErr.Message, "code": rpcErr.Code})
		return
	}

	writeEnvelope(w, http.StatusOK, map[string]interface{}{"ok": true, "result": result, "jsonrpc": "2.0"})
}

func writeEnvelope(w http.ResponseWriter, status int, body interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ParamString decodes a string parameter of a recorded call.
func ParamString(t *testing.T, call LedgerCall, name string) string {
	t.Helper()

	var s string
	if err := json.Unmarshal(call.Params[name], &s); err != nil {
		t.Fatalf("param %s of %s is not a string: %v", name, call.Method, err)
	}
	return s
}

// GetMethodResult builds a runGetMethod result with the given exit code and stack.
func GetMethodResult(exitCode int, stack ...[]interface{}) map[string]interface{} {
	if stack == nil {
		stack = [][]interface{}{}
	}
	return map[string]interface{}{
		"@type":     "smc.runResult",
		"gas_used":  int64(1000),
		"exit_code": exitCode,
		"stack":     stack,
	}
}
