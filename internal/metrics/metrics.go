package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	KindRate    = "rate"
	KindHistory = "history"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics — счётчики виджета. Регистрируются в собственном реестре,
// чтобы тесты могли создавать сколько угодно экземпляров.
type Metrics struct {
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	staleTotal    *prometheus.CounterVec
	widgetsActive prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "converter_fetch_total",
				Help: "CoinGecko fetches by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "converter_fetch_duration_seconds",
				Help:    "Duration of CoinGecko fetches",
				Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
			},
			[]string{"kind"},
		),
		staleTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "converter_stale_responses_total",
				Help: "Fetch results discarded because the selection changed",
			},
			[]string{"kind"},
		),
		widgetsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "converter_widgets_active",
				Help: "Currently mounted widgets",
			},
		),
	}
	m.registry.MustRegister(
		m.fetchTotal,
		m.fetchDuration,
		m.staleTotal,
		m.widgetsActive,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) FetchDone(kind string, took time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.fetchTotal.WithLabelValues(kind, outcome).Inc()
	m.fetchDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func (m *Metrics) StaleDiscarded(kind string) {
	m.staleTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) WidgetMounted()   { m.widgetsActive.Inc() }
func (m *Metrics) WidgetUnmounted() { m.widgetsActive.Dec() }

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler — обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
