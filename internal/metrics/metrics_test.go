package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/storefront-auth/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	m.RecordLoginStarted()
	m.RecordLoginStarted()
	m.RecordCallback("success")
	m.RecordTokenRequest("authorization_code", true, 20*time.Millisecond)
	m.RecordTokenRequest("refresh_token", false, 5*time.Millisecond)
	m.RecordRefresh(false)
	m.RecordGuardRedirect()
	m.RecordSessionDeleted("logout")

	require.Equal(t, 2.0, testutil.ToFloat64(m.LoginsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Callbacks.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TokenRequests.WithLabelValues("authorization_code", metrics.ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TokenRequests.WithLabelValues("refresh_token", metrics.ResultFailure)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Refreshes.WithLabelValues(metrics.ResultFailure)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GuardRedirects))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionsDeleted.WithLabelValues("logout")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.RecordLoginStarted()
		m.RecordCallback("denied")
		m.RecordTokenRequest("refresh_token", true, time.Second)
		m.RecordRefresh(true)
		m.RecordGuardRedirect()
		m.RecordSessionDeleted("logout")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	m.RecordGuardRedirect()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "storefront_auth_guard_redirects_total 1"))
}
