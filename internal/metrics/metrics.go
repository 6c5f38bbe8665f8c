// Package metrics holds the Prometheus collectors for the auth subsystem.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginInvalidRequest     = "invalid_request"
	LoginError              = "error"
)

// Registration results.
const (
	RegistrationCreated         = "created"
	RegistrationInvalidPassword = "invalid_password"
	RegistrationDuplicateEmail  = "duplicate_email"
	RegistrationInvalidRequest  = "invalid_request"
	RegistrationError           = "error"
)

// Collector records auth outcomes. A nil *Collector records nothing.
type Collector struct {
	gatherer      prometheus.Gatherer
	gateDecisions *prometheus.CounterVec
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	hashDuration  prometheus.Histogram
}

// NewCollector creates the collectors and registers them with reg.
// Panics if registration fails, following prometheus convention.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		gatherer: reg,
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_gate_decisions_total",
			Help: "Total number of auth gate decisions by policy and outcome",
		}, []string{"policy", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_login_attempts_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_registrations_total",
			Help: "Total number of registration attempts by result",
		}, []string{"result"}),
		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authgate_password_hash_duration_seconds",
			Help:    "Password hashing duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
	reg.MustRegister(c.gateDecisions, c.logins, c.registrations, c.hashDuration)
	return c
}

// GateDecision counts one gate outcome.
func (c *Collector) GateDecision(policy, outcome string) {
	if c == nil {
		return
	}
	c.gateDecisions.WithLabelValues(policy, outcome).Inc()
}

// LoginAttempt counts one login by result.
func (c *Collector) LoginAttempt(result string) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(result).Inc()
}

// Registration counts one registration by result.
func (c *Collector) Registration(result string) {
	if c == nil {
		return
	}
	c.registrations.WithLabelValues(result).Inc()
}

// ObservePasswordHash records how long one hash took.
func (c *Collector) ObservePasswordHash(d time.Duration) {
	if c == nil {
		return
	}
	c.hashDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
