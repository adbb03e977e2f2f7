package ledger

import "github.com/prometheus/client_golang/prometheus"

type rpcMetrics struct {
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newRPCMetrics(reg prometheus.Registerer) *rpcMetrics {
	m := &rpcMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dinebook_ledger_rpc_requests_total",
			Help: "Ledger RPC requests issued, by method.",
		}, []string{"method"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dinebook_ledger_rpc_failures_total",
			Help: "Ledger RPC requests that failed, by method.",
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.failures)
	}
	return m
}

func (m *rpcMetrics) recordRequest(method string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method).Inc()
}

func (m *rpcMetrics) recordFailure(method string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(method).Inc()
}
