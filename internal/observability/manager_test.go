package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/repairdesk/internal/config"
)

func TestPrometheusExportsOrderCounters(t *testing.T) {
	mgr, err := Build(context.Background(), config.Observability{
		ServiceName:     "repairdesk",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	require.True(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	require.NotNil(t, mgr.MetricsHandler())

	counter, err := mgr.meterProvider.Meter("test").Int64Counter("repairdesk.orders.closed")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "repairdesk_orders_closed_total")
}

func TestDisabledExporters(t *testing.T) {
	mgr, err := Build(context.Background(), config.Observability{
		EnableTracing:   true,
		TraceExporter:   "none",
		EnableMetrics:   true,
		MetricsExporter: "carrier-pigeon",
	}, nil)
	require.NoError(t, err)

	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
	assert.NoError(t, mgr.Shutdown(context.Background()))
}

func TestOTLPNeedsEndpoint(t *testing.T) {
	_, err := Build(context.Background(), config.Observability{
		EnableTracing: true,
		TraceExporter: "otlp",
	}, nil)
	assert.ErrorContains(t, err, "OBS_OTLP_ENDPOINT")
}
