package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperationCountsByResult(t *testing.T) {
	m := New()
	m.ObserveOperation("register", ResultOK)
	m.ObserveOperation("register", ResultOK)
	m.ObserveOperation("register", "invalid_royalty")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("register", ResultOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("register", "invalid_royalty")))
}

func TestObservePayment(t *testing.T) {
	m := New()
	m.ObservePayment(PaymentKindRoyalty, 300, 7)

	assert.Equal(t, float64(300), testutil.ToFloat64(m.grossVolume.WithLabelValues(PaymentKindRoyalty)))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.platformFee.WithLabelValues(PaymentKindRoyalty)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("register", ResultOK)
		m.ObservePayment(PaymentKindUpfront, 1, 0)
		m.ObserveRequest("GET", "/health", "200", 0.01)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveOperation("withdraw", ResultOK)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ip_ledger_operations_total{operation="withdraw",result="ok"} 1`)
}
