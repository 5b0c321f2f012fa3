// Package metrics holds the Prometheus instruments for the login flow and session refresh.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds all Prometheus metrics for the storefront auth core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	LoginsStarted   prometheus.Counter
	Callbacks       *prometheus.CounterVec
	TokenRequests   *prometheus.CounterVec
	TokenLatency    *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
	GuardRedirects  prometheus.Counter
	SessionsDeleted *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance with all metrics registered on registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		LoginsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_auth_logins_started_total",
			Help: "Authorization redirects issued",
		}),
		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_auth_callbacks_total",
			Help: "Authorization callbacks handled, by outcome",
		}, []string{"outcome"}),
		TokenRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_auth_token_requests_total",
			Help: "Token endpoint requests, by grant type and result",
		}, []string{"grant_type", "result"}),
		TokenLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_auth_token_request_duration_seconds",
			Help:    "Token endpoint request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"grant_type"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_auth_refreshes_total",
			Help: "Access token refreshes performed by the refresh manager, by result",
		}, []string{"result"}),
		GuardRedirects: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_auth_guard_redirects_total",
			Help: "Unauthenticated requests to protected routes redirected to login",
		}),
		SessionsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_auth_sessions_deleted_total",
			Help: "Sessions removed, by reason",
		}, []string{"reason"}),
		gatherer: registry,
	}
}

// RecordLoginStarted counts an issued authorization redirect
func (m *Metrics) RecordLoginStarted() {
	if m == nil {
		return
	}
	m.LoginsStarted.Inc()
}

// RecordCallback counts a callback outcome (success, denied, invalid_state, exchange_failed...)
func (m *Metrics) RecordCallback(outcome string) {
	if m == nil {
		return
	}
	m.Callbacks.WithLabelValues(outcome).Inc()
}

// RecordTokenRequest counts a token endpoint call and its latency
func (m *Metrics) RecordTokenRequest(grantType string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TokenRequests.WithLabelValues(grantType, result(success)).Inc()
	m.TokenLatency.WithLabelValues(grantType).Observe(elapsed.Seconds())
}

// RecordRefresh counts a refresh manager outcome
func (m *Metrics) RecordRefresh(success bool) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result(success)).Inc()
}

// RecordGuardRedirect counts a redirect issued by the route guard
func (m *Metrics) RecordGuardRedirect() {
	if m == nil {
		return
	}
	m.GuardRedirects.Inc()
}

// RecordSessionDeleted counts a removed session (logout, refresh_failed)
func (m *Metrics) RecordSessionDeleted(reason string) {
	if m == nil {
		return
	}
	m.SessionsDeleted.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func result(success bool) string {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}
