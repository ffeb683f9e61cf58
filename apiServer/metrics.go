package apiServer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metricsSummaryObjectives returns the summary objectives for promauto.NewSummary.
func metricsSummaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.5:  0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

var (
	// metricRequestsCount counts the operations we served, by outcome.
	metricRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prolix_requests_count",
		Help: "Total number of processed obscure, clarify and forget requests",
	}, []string{"operation", "code", "reason"})

	// metricRequestsInflight gauges the number of requests currently inflight.
	metricRequestsInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prolix_requests_inflight_gauge",
		Help: "The number of requests currently inflight",
	})

	// metricOperationDurationSeconds summarizes the time spent in the service.
	metricOperationDurationSeconds = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "prolix_operation_duration_seconds",
		Help:       "Summarizes the time to complete an operation (in seconds)",
		Objectives: metricsSummaryObjectives(),
	}, []string{"operation"})

	// metricObscuredChars summarizes the size of the texts we obscure.
	metricObscuredChars = promauto.NewSummary(prometheus.SummaryOpts{
		Name:       "prolix_obscured_text_chars",
		Help:       "Summarizes the number of characters of obscured input texts",
		Objectives: metricsSummaryObjectives(),
	})
)
