package config

import (
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/jetton-signer/internal/util"
)

type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	BaseURL                        string
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableLoggerMiddleware         bool
	EnableTrailingSlashMiddleware  bool
	// TrustProxy takes the caller IP from X-Forwarded-For instead of the socket address
	TrustProxy bool
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestHeader   bool
	LogResponseHeader  bool
	LogCaller          bool
	PrettyPrintConsole bool
}

type ManagementServer struct {
	ProbeLivenessTimeout  time.Duration
	ProbeReadinessTimeout time.Duration
}

type Signer struct {
	APISecretKey string `json:"-"`
	// Phrase is the sender wallet's recovery phrase, space separated
	Phrase                string `json:"-"`
	JettonMaster          string
	MaxAmountPerTx        string
	Mode                  string
	JettonWalletCacheSize int
	MessageTTL            time.Duration
	SequenceWaitTimeout   time.Duration
	SequencePollInterval  time.Duration
}

type RateLimit struct {
	PerMinute     int
	Backend       string
	SweepInterval time.Duration
}

type Ledger struct {
	Endpoint string
	APIKey   string `json:"-"`
	Timeout  time.Duration
}

type Redis struct {
	Addr     string
	Password string `json:"-"`
	DB       int
	LockTTL  time.Duration
}

type Server struct {
	Echo       EchoServer
	Management ManagementServer
	Logger     LoggerServer
	Signer     Signer
	RateLimit  RateLimit
	Ledger     Ledger
	Redis      Redis
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	loadDotEnvFile()

	return Server{
		Echo: EchoServer{
			Debug:                          util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":"+util.GetEnv("PORT", "5000")),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", false),
			BaseURL:                        util.GetEnv("SERVER_ECHO_BASE_URL", "http://localhost:5000"),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:      util.GetEnvAsBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableLoggerMiddleware:         util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
			EnableTrailingSlashMiddleware:  util.GetEnvAsBool("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE", true),
			TrustProxy:                     util.GetEnvAsBool("SERVER_ECHO_TRUST_PROXY", false),
		},
		Management: ManagementServer{
			ProbeLivenessTimeout:  util.GetEnvAsDuration("SERVER_MANAGEMENT_PROBE_LIVENESS_TIMEOUT", 2*time.Second),
			ProbeReadinessTimeout: util.GetEnvAsDuration("SERVER_MANAGEMENT_PROBE_READINESS_TIMEOUT", 4*time.Second),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.DebugLevel.String())),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())),
			LogRequestHeader:   util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_HEADER", false),
			LogResponseHeader:  util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_HEADER", false),
			LogCaller:          util.GetEnvAsBool("SERVER_LOGGER_LOG_CALLER", false),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Signer: Signer{
			APISecretKey:          util.GetEnv("API_SECRET_KEY", ""),
			Phrase:                util.GetEnv("SENDER_WALLET_SEED", ""),
			JettonMaster:          util.GetEnv("CHAMBY_JETTON_CONTRACT", ""),
			MaxAmountPerTx:        util.GetEnv("MAX_AMOUNT_PER_TX", "100000"),
			Mode:                  util.GetEnv("SERVICE_MODE", "PRODUCTION"),
			JettonWalletCacheSize: util.GetEnvAsInt("JETTON_WALLET_CACHE_SIZE", 128),
			MessageTTL:            util.GetEnvAsDuration("MESSAGE_TTL", 60*time.Second),
			SequenceWaitTimeout:   util.GetEnvAsDuration("SEQUENCE_WAIT_TIMEOUT", 30*time.Second),
			SequencePollInterval:  util.GetEnvAsDuration("SEQUENCE_POLL_INTERVAL", time.Second),
		},
		RateLimit: RateLimit{
			PerMinute:     util.GetEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
			Backend:       strings.ToLower(util.GetEnv("RATE_LIMIT_BACKEND", "memory")),
			SweepInterval: util.GetEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
		},
		Ledger: Ledger{
			Endpoint: util.GetEnv("TONCENTER_ENDPOINT", "https://toncenter.com/api/v2/jsonRPC"),
			APIKey:   util.GetEnv("TONCENTER_API_KEY", ""),
			Timeout:  util.GetEnvAsDuration("LEDGER_TIMEOUT", 15*time.Second),
		},
		Redis: Redis{
			Addr:     util.GetEnv("REDIS_ADDR", ""),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvAsInt("REDIS_DB", 0),
			LockTTL:  util.GetEnvAsDuration("REDIS_LOCK_TTL", 2*time.Minute),
		},
	}
}

// ledger round trips inside the submission lock: seqno, jetton wallet lookup, send and one spare
const lockedLedgerCalls = 4

// Validate checks the settings the signer cannot start without
func (c Server) Validate() error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.Signer.APISecretKey, "API_SECRET_KEY"),
		vala.StringNotEmpty(c.Signer.Phrase, "SENDER_WALLET_SEED"),
		vala.StringNotEmpty(c.Signer.JettonMaster, "CHAMBY_JETTON_CONTRACT"),
		vala.StringNotEmpty(c.Signer.MaxAmountPerTx, "MAX_AMOUNT_PER_TX"),
		vala.StringNotEmpty(c.Ledger.Endpoint, "TONCENTER_ENDPOINT"),
		vala.GreaterThan(c.RateLimit.PerMinute, 0, "RATE_LIMIT_PER_MINUTE"),
	).Check()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	if c.UsesRedis() && c.Redis.Addr == "" {
		return errors.New("invalid configuration: REDIS_ADDR is required for RATE_LIMIT_BACKEND=redis")
	}

	// the lock must outlive the slowest section it guards: seqno wait plus the ledger calls made under it
	if c.UsesRedis() && c.Redis.LockTTL <= c.Signer.SequenceWaitTimeout+lockedLedgerCalls*c.Ledger.Timeout {
		return errors.Errorf("invalid configuration: REDIS_LOCK_TTL (%s) must exceed SEQUENCE_WAIT_TIMEOUT + %d*LEDGER_TIMEOUT (%s)",
			c.Redis.LockTTL, lockedLedgerCalls, c.Signer.SequenceWaitTimeout+lockedLedgerCalls*c.Ledger.Timeout)
	}

	return nil
}

// UsesRedis reports whether shared state lives in redis
func (c Server) UsesRedis() bool {
	return c.RateLimit.Backend == "redis"
}
