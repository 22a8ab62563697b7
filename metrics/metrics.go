package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	transferBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpexact",
			Subsystem: "transfer",
			Name:      "bytes_total",
			Help:      "Bytes moved by exact reads and writes.",
		},
		[]string{"op"},
	)
	transferErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpexact",
			Subsystem: "transfer",
			Name:      "errors_total",
			Help:      "Exact reads and writes that failed.",
		},
		[]string{"op"},
	)
	acceptedConns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tcpexact",
			Subsystem: "server",
			Name:      "accepted_connections_total",
			Help:      "Connections accepted by the echo server.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(transferBytes, transferErrors, acceptedConns)
	})
}

func RecordTransfer(op string, n int) {
	RegisterMetrics()
	if n > 0 {
		transferBytes.WithLabelValues(op).Add(float64(n))
	}
}

func RecordTransferError(op string) {
	RegisterMetrics()
	transferErrors.WithLabelValues(op).Inc()
}

func RecordAccept() {
	RegisterMetrics()
	acceptedConns.Inc()
}
