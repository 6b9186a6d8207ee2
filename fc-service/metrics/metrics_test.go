package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestFactoryDocument(t *testing.T) {
	reg := NewRegistry()
	f := With(reg)
	f.NewGauge(prometheus.GaugeOpts{Namespace: "test", Name: "b_gauge", Help: "b"})
	f.NewCounterVec(prometheus.CounterOpts{Namespace: "test", Name: "a_total", Help: "a"}, []string{"x"})

	docs := f.Document()
	require.Len(t, docs, 2)
	require.Equal(t, "test_a_total", docs[0].Name)
	require.Equal(t, "counter", docs[0].Type)
	require.Equal(t, []string{"x"}, docs[0].Labels)
	require.Equal(t, "test_b_gauge", docs[1].Name)
}

func TestMetricChecker(t *testing.T) {
	reg := NewRegistry()
	f := With(reg)
	c := f.NewCounterVec(prometheus.CounterOpts{Namespace: "test", Name: "events_total"}, []string{"kind"})
	c.WithLabelValues("a").Inc()
	c.WithLabelValues("b").Add(3)

	checker := NewMetricChecker(t, reg)
	require.Equal(t, 3.0, checker.FindByName("test_events_total").FindByLabels(map[string]string{"kind": "b"}).GetCounter().GetValue())
	require.NotEmpty(t, checker.Dump())
}

func TestServer(t *testing.T) {
	reg := NewRegistry()
	With(reg).NewGauge(prometheus.GaugeOpts{Namespace: "test", Name: "up"}).Set(1)

	srv, err := StartServer(reg, "127.0.0.1", 0)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, srv.Stop(context.Background())) })

	resp, err := http.Get(srv.HTTPEndpoint() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "test_up 1")
}

func TestCLIConfigCheck(t *testing.T) {
	cfg := DefaultCLIConfig()
	require.NoError(t, cfg.Check())
	cfg.Enabled = true
	cfg.ListenPort = 70000
	require.ErrorIs(t, cfg.Check(), ErrInvalidPort)
}
