package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncScrollStep()
		m.AddCardsSeen("collector", 3)
		m.IncCardFailed()
		m.AddRecords("products", 1)
		m.IncAttempt("error")
		m.ObserveURL(true, time.Second)
		m.SetSuccessRate(50)
	})
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}

func TestCounters(t *testing.T) {
	m := New()

	m.IncScrollStep()
	m.IncScrollStep()
	m.AddCardsSeen("extractor", 24)
	m.IncCardFailed()
	m.IncAttempt("error")
	m.IncAttempt("error")
	m.IncAttempt("success")
	m.ObserveURL(true, 2*time.Second)
	m.ObserveURL(false, 9*time.Second)
	m.SetSuccessRate(50)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScrollSteps))
	assert.Equal(t, 24.0, testutil.ToFloat64(m.CardsSeen.WithLabelValues("extractor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CardsFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProxyAttempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.URLOutcomes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.URLOutcomes.WithLabelValues("failure")))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.LastRunSuccess))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.AddRecords("price_samples", 2)

	path := filepath.Join(t.TempDir(), "wayfair.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `records_written_total{table="price_samples"} 2`)
}
