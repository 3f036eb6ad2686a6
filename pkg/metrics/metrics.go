// Package metrics exposes Prometheus instruments for sign-in flows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flow labels.
const (
	FlowPreAuth  = "preauth"
	FlowLocal    = "local"
	FlowExternal = "external"
	FlowResume   = "resume"
)

// Outcome labels in addition to authn result kinds.
const (
	OutcomeThrottled = "throttled"
	OutcomeInvalid   = "invalid"
	OutcomeFailure   = "failure"
)

// Metrics holds the sign-in instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Logins              *prometheus.CounterVec
	Challenges          *prometheus.CounterVec
	Logouts             prometheus.Counter
	UserServiceDuration *prometheus.HistogramVec
}

// New creates the instruments and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idsrv_logins_total",
			Help: "Sign-in attempts by flow and outcome",
		}, []string{"flow", "outcome"}),
		Challenges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idsrv_external_challenges_total",
			Help: "Redirects to external identity providers",
		}, []string{"provider"}),
		Logouts: f.NewCounter(prometheus.CounterOpts{
			Name: "idsrv_logouts_total",
			Help: "Completed logouts",
		}),
		UserServiceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idsrv_user_service_duration_seconds",
			Help:    "Duration of user service calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// IncLogin records the outcome of a sign-in step.
func (m *Metrics) IncLogin(flow, outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(flow, outcome).Inc()
}

// IncChallenge records a redirect to provider.
func (m *Metrics) IncChallenge(provider string) {
	if m == nil {
		return
	}
	m.Challenges.WithLabelValues(provider).Inc()
}

// IncLogout records a completed logout.
func (m *Metrics) IncLogout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

// ObserveUserService records the duration of a user service call.
// Call with time.Now() taken before the call.
func (m *Metrics) ObserveUserService(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.UserServiceDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
