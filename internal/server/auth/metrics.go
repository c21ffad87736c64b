package auth

import "github.com/prometheus/client_golang/prometheus"

// Validation outcomes.
const (
	OutcomeValid         = "valid"
	OutcomeInvalid       = "invalid"
	OutcomeNotFound      = "not_found"
	OutcomeInactive      = "inactive"
	OutcomeUntrusted     = "untrusted"
	OutcomeNoCredentials = "no_credentials"
	OutcomeError         = "error"
)

// Metrics counts session validations. A nil *Metrics records nothing.
type Metrics struct {
	validations *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_session_validations_total",
				Help: "Session validations by method and outcome",
			},
			[]string{"method", "outcome"},
		),
	}
	reg.MustRegister(m.validations)
	return m
}

func (m *Metrics) observe(method Method, outcome string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(method.String(), outcome).Inc()
}
