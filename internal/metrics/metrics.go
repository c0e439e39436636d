package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ocrPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "regdigest_ocr_pages_total",
	Help: "Pages rasterized and recognized, labelled by outcome",
}, []string{"outcome"})

var ocrPageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "regdigest_ocr_page_duration_seconds",
	Help:    "Time spent rendering and recognizing one page.",
	Buckets: []float64{.25, .5, 1, 2, 5, 10, 30},
})

var completionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "regdigest_completion_requests_total",
	Help: "Completion requests labelled by provider and outcome",
}, []string{"provider", "outcome"})

var completionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "regdigest_completion_latency_seconds",
	Help:    "Latency of completion service calls.",
	Buckets: []float64{.25, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"provider"})

var volumeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "regdigest_volume_runs_total",
	Help: "Finished volume runs labelled by final status",
}, []string{"status"})

var runsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "regdigest_runs_in_queue",
	Help: "Number of runs waiting for the worker",
})

var fragmentsDispatched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "regdigest_fragments_dispatched_total",
	Help: "Fragments sent to the completion service at least once",
})

func CaptureOCRPage(elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ocrPagesTotal.WithLabelValues(outcome).Inc()
	ocrPageDuration.Observe(elapsed.Seconds())
}

func CaptureCompletion(provider string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	completionRequestsTotal.WithLabelValues(provider, outcome).Inc()
	completionLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func CaptureRun(status string) {
	volumeRunsTotal.WithLabelValues(status).Inc()
}

func IncrementRunsInQueue() {
	runsInQueue.Inc()
}

func DecrementRunsInQueue() {
	runsInQueue.Dec()
}

func IncrementFragmentsDispatched() {
	fragmentsDispatched.Inc()
}
