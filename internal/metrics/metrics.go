package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors shared by the three pipelines.
// All helpers are no-ops on a nil receiver.
type Metrics struct {
	Registry       *prometheus.Registry
	ScrollSteps    prometheus.Counter
	CardsSeen      *prometheus.CounterVec
	CardsFailed    prometheus.Counter
	RecordsWritten *prometheus.CounterVec
	ProxyAttempts  *prometheus.CounterVec
	URLOutcomes    *prometheus.CounterVec
	URLDuration    prometheus.Histogram
	LastRunSuccess prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	scrollSteps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collector_scroll_steps_total",
		Help: "Scroll steps issued by the convergence collector.",
	})
	cardsSeen := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_cards_seen_total",
		Help: "Listing cards found on rendered pages.",
	}, []string{"pipeline"})
	cardsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_cards_failed_total",
		Help: "Listing cards skipped because extraction failed.",
	})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "records_written_total",
		Help: "Rows written to output tables.",
	}, []string{"table"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_proxy_attempts_total",
		Help: "Rendering proxy calls by outcome.",
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_refresh_urls_total",
		Help: "URLs processed by the price refresh loop by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_refresh_url_duration_seconds",
		Help:    "Wall time spent per URL including retries.",
		Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "price_refresh_last_success_rate",
		Help: "Success rate in percent of the latest price refresh run.",
	})

	registry.MustRegister(scrollSteps, cardsSeen, cardsFailed, records, attempts, outcomes, duration, lastRun)

	return &Metrics{
		Registry:       registry,
		ScrollSteps:    scrollSteps,
		CardsSeen:      cardsSeen,
		CardsFailed:    cardsFailed,
		RecordsWritten: records,
		ProxyAttempts:  attempts,
		URLOutcomes:    outcomes,
		URLDuration:    duration,
		LastRunSuccess: lastRun,
	}
}

func (m *Metrics) IncScrollStep() {
	if m == nil {
		return
	}
	m.ScrollSteps.Inc()
}

func (m *Metrics) AddCardsSeen(pipeline string, n int) {
	if m == nil {
		return
	}
	m.CardsSeen.WithLabelValues(pipeline).Add(float64(n))
}

func (m *Metrics) IncCardFailed() {
	if m == nil {
		return
	}
	m.CardsFailed.Inc()
}

func (m *Metrics) AddRecords(table string, n int) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(table).Add(float64(n))
}

// IncAttempt records one proxy call; outcome is "success", "no_price" or "error".
func (m *Metrics) IncAttempt(outcome string) {
	if m == nil {
		return
	}
	m.ProxyAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveURL(success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.URLOutcomes.WithLabelValues(outcome).Inc()
	m.URLDuration.Observe(d.Seconds())
}

func (m *Metrics) SetSuccessRate(rate float64) {
	if m == nil {
		return
	}
	m.LastRunSuccess.Set(rate)
}

// WriteTextfile dumps the registry in the text exposition format so a
// node_exporter textfile collector can pick up batch-run results.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
