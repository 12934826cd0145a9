package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github/chapool/jetton-signer/internal/wallet/failure"
)

const namespace = "jetton_signer"

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Service owns the prometheus registry of the process and the signer's collectors.
type Service struct {
	Registry *prometheus.Registry

	ledgerCalls      *prometheus.HistogramVec
	transfers        *prometheus.CounterVec
	transferDuration prometheus.Histogram
	rateLimited      prometheus.Counter
	authRejected     *prometheus.CounterVec
}

func New() (*Service, error) {
	s := &Service{
		Registry: prometheus.NewRegistry(),
		ledgerCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_call_duration_seconds",
			Help:      "Duration of JSON-RPC calls to the ledger node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Jetton transfer attempts by result kind.",
		}, []string{"kind"}),
		transferDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Duration of the jetton transfer pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Send requests rejected by the rate limiter.",
		}),
		authRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_rejected_total",
			Help:      "Requests rejected by the API key guard.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.ledgerCalls,
		s.transfers,
		s.transferDuration,
		s.rateLimited,
		s.authRejected,
	} {
		if err := s.Registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register metrics collector")
		}
	}

	return s, nil
}

func (s *Service) ObserveLedgerCall(method string, duration time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	s.ledgerCalls.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

func (s *Service) ObserveTransfer(err error, duration time.Duration) {
	kind := outcomeOK
	if err != nil {
		kind = failure.KindOf(err).String()
	}
	s.transfers.WithLabelValues(kind).Inc()
	s.transferDuration.Observe(duration.Seconds())
}

func (s *Service) ObserveRateLimited() {
	s.rateLimited.Inc()
}

func (s *Service) ObserveAuthRejected(reason string) {
	s.authRejected.WithLabelValues(reason).Inc()
}
