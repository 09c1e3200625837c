package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.BlocksAccepted.Inc()
	m.BlocksRejected.Inc()
	m.MempoolSize.Set(4)
	m.ConnectedPeers.Set(2)
	m.TemplatesServed.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.BlocksAccepted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BlocksRejected))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.MempoolSize))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ConnectedPeers))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TemplatesServed))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestMetricsServedOverHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.BlocksAccepted.Inc()

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
