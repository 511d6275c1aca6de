package auth

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for the security-relevant outcomes. All methods
// are nil-receiver safe so the orchestrator can run without metrics wired.
type Metrics struct {
	logins          *prometheus.CounterVec
	lockouts        prometheus.Counter
	tokenRejections *prometheus.CounterVec
}

// NewMetrics builds and registers the counters against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"result"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Accounts locked after exceeding the failure threshold.",
		}),
		tokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_rejections_total",
			Help: "Rejected tokens by context.",
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.logins, m.lockouts, m.tokenRejections)
	}
	return m
}

func (m *Metrics) loginResult(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) lockoutTripped() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}

func (m *Metrics) tokenRejected(kind string) {
	if m == nil {
		return
	}
	m.tokenRejections.WithLabelValues(kind).Inc()
}
