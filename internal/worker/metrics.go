package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry               *prometheus.Registry
	runsTotal              *prometheus.CounterVec
	runDuration            *prometheus.HistogramVec
	activeRuns             prometheus.Gauge
	stickersConvertedTotal prometheus.Counter
	skippedFilesTotal      *prometheus.CounterVec
	bytesWrittenTotal      prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stickers_worker_runs_total",
			Help: "Total generation runs by final status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stickers_worker_run_duration_seconds",
			Help:    "Total duration of each generation run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stickers_worker_active_runs",
			Help: "Current number of active generation runs.",
		}),
		stickersConvertedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stickers_worker_converted_total",
			Help: "Total stickers written across successful runs.",
		}),
		skippedFilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stickers_worker_skipped_files_total",
			Help: "Total source files skipped, by reason.",
		}, []string{"reason"}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stickers_worker_bytes_written_total",
			Help: "Total sticker bytes written across successful runs.",
		}),
	}

	registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.activeRuns,
		m.stickersConvertedTotal,
		m.skippedFilesTotal,
		m.bytesWrittenTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
