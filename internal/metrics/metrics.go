package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/wallet/node"
)

const namespace = "ethtx"

// Operations reported in the failures counter.
const (
	OpDecode    = "decode"
	OpSign      = "sign"
	OpBroadcast = "broadcast"
)

// Metrics counts transaction outcomes on its own registry so that a CLI run
// can dump them to a textfile without touching the default registry.
type Metrics struct {
	registry *prometheus.Registry

	decoded   *prometheus.CounterVec
	cacheHits prometheus.Counter
	signed    *prometheus.CounterVec
	broadcast *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		decoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_decoded_total",
			Help:      "Signed transactions decoded, by kind.",
		}, []string{"kind"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_cache_hits_total",
			Help:      "Decodes answered from the decode cache.",
		}),
		signed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_signed_total",
			Help:      "Transactions signed, by kind.",
		}, []string{"kind"}),
		broadcast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_broadcast_total",
			Help:      "Signed transactions accepted by a node, by kind.",
		}, []string{"kind"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_failures_total",
			Help:      "Failed decode, sign and broadcast operations, by reason.",
		}, []string{"op", "reason"}),
	}
}

// The methods below are no-ops on a nil receiver.

func (m *Metrics) Decoded(kind txn.Kind) {
	if m == nil {
		return
	}
	m.decoded.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) DecodeCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) Signed(kind txn.Kind) {
	if m == nil {
		return
	}
	m.signed.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) Broadcast(kind txn.Kind) {
	if m == nil {
		return
	}
	m.broadcast.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) Failed(op string, err error) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, Reason(err)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all counters in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrap(err, "failed to write metrics textfile")
	}

	return nil
}

// Reason maps an error to a low-cardinality label value.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, txn.ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, txn.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, txn.ErrChainIDMismatch):
		return "chain_id_mismatch"
	case errors.Is(err, node.ErrUnavailable):
		return "node_unavailable"
	case errors.Is(err, txn.ErrAlreadySigned):
		return "already_signed"
	case errors.Is(err, txn.ErrNonCanonicalQuantity),
		errors.Is(err, txn.ErrQuantityOverflow),
		errors.Is(err, txn.ErrMalformedAddress),
		errors.Is(err, txn.ErrFieldCount),
		errors.Is(err, txn.ErrTrailingBytes),
		errors.Is(err, txn.ErrEmptyTransaction):
		return "malformed"
	default:
		return "other"
	}
}
