package test

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/api/router"
	"github/chapool/jetton-signer/internal/config"
	"github/chapool/jetton-signer/internal/wallet/custody"
)

const (
	TestAPIKey       = "test-secret-key"
	TestJettonMaster = "EQBajWYb-dNy0skElmij1onJjXk_ONCx_N1xBOyTaPaRvQ5r"
)

var (
	phraseOnce sync.Once
	phrase     []string
)

// TestPhrase returns a valid recovery phrase, generated once per test binary.
func TestPhrase(t *testing.T) []string {
	t.Helper()

	var err error
	phraseOnce.Do(func() {
		phrase, err = custody.NewPhrase()
	})
	if err != nil {
		t.Fatalf("failed to generate test phrase: %v", err)
	}

	return phrase
}

// NewTestLedgerState is a deployed wallet holding 5 TON and 10 jettons at seqno 0.
func NewTestLedgerState() *LedgerState {
	return &LedgerState{
		BalanceNano:       big.NewInt(5_000_000_000),
		JettonBalanceNano: big.NewInt(10_000_000_000),
		Deployed:          true,
		JettonDeployed:    true,
	}
}

// NewTestServerConfig returns the env config with the signer pointed at fake.
func NewTestServerConfig(t *testing.T, fake *FakeLedger) config.Server {
	t.Helper()

	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Signer.APISecretKey = TestAPIKey
	cfg.Signer.Phrase = strings.Join(TestPhrase(t), " ")
	cfg.Signer.JettonMaster = TestJettonMaster
	cfg.Signer.MaxAmountPerTx = "100000"
	cfg.Signer.SequenceWaitTimeout = time.Second
	cfg.Signer.SequencePollInterval = 10 * time.Millisecond

	cfg.RateLimit.PerMinute = 10
	cfg.RateLimit.Backend = "memory"

	cfg.Ledger = config.Ledger{
		Endpoint: fake.Config().Endpoint,
		APIKey:   fake.Config().APIKey,
		Timeout:  5 * time.Second,
	}

	cfg.Echo.TrustProxy = false

	return cfg
}

// WithTestServer runs closure against a fully initialized server backed by a default fake ledger.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerAndLedger(t, func(s *api.Server, _ *FakeLedger, _ *LedgerState) {
		t.Helper()
		closure(s)
	})
}

// WithTestServerAndLedger exposes the fake ledger and its state to closure.
func WithTestServerAndLedger(t *testing.T, closure func(s *api.Server, fake *FakeLedger, state *LedgerState)) {
	t.Helper()

	fake := NewFakeLedger(t)
	state := NewTestLedgerState()
	fake.HandleDefaults(state)

	WithTestServerConfigurable(t, NewTestServerConfig(t, fake), func(s *api.Server) {
		t.Helper()
		closure(s, fake, state)
	})
}

// WithTestServerRedis runs closure against a server using the redis backend on an in-memory redis.
func WithTestServerRedis(t *testing.T, closure func(s *api.Server, mr *miniredis.Miniredis)) {
	t.Helper()

	mr := miniredis.RunT(t)

	fake := NewFakeLedger(t)
	fake.HandleDefaults(NewTestLedgerState())

	cfg := NewTestServerConfig(t, fake)
	cfg.RateLimit.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	withServer(t, cfg, client, func(s *api.Server) {
		t.Helper()
		closure(s, mr)
	})
}

// WithTestServerConfigurable runs closure against a server initialized from config.
func WithTestServerConfigurable(t *testing.T, config config.Server, closure func(s *api.Server)) {
	t.Helper()

	withServer(t, config, nil, closure)
}

func withServer(t *testing.T, config config.Server, redisClient *redis.Client, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServerWithRedis(config, redisClient, t)
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	if err := router.Init(s); err != nil {
		t.Fatalf("failed to init router: %v", err)
	}

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("failed to shutdown server: %v", errs)
	}
}

// PerformRequest serves one request through the server's echo instance.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body io.Reader, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	for k, v := range headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// APIKeyHeader returns the headers of an authorized caller.
func APIKeyHeader() http.Header {
	h := http.Header{}
	h.Set("x-api-key", TestAPIKey)
	return h
}
