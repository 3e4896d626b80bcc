package exporter

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	METRIC_PROCESSED_COUNT = "processed_count"
	METRIC_ERROR_COUNT     = "error_count"
	METRIC_BOOKING_COUNT   = "booking_count"
)

var (
	counters     map[string]prometheus.Counter
	cycleSeconds prometheus.Histogram
)

func Init() {

	// --- Static Metrics: the metrics which are not depended on running configuration

	// Create metric spaces
	counters = make(map[string]prometheus.Counter)

	// Register metrics
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sc",
		Subsystem: "indexer",
		Name:      METRIC_PROCESSED_COUNT,
		Help:      "Counts the accounts processed by handlers",
	})
	prometheus.MustRegister(counter)
	counters[METRIC_PROCESSED_COUNT] = counter

	counter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sc",
		Subsystem: "indexer",
		Name:      METRIC_ERROR_COUNT,
		Help:      "Counts the accounts skipped due to handler errors",
	})
	prometheus.MustRegister(counter)
	counters[METRIC_ERROR_COUNT] = counter

	counter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sc",
		Subsystem: "indexer",
		Name:      METRIC_BOOKING_COUNT,
		Help:      "Counts the ledger bookings inserted",
	})
	prometheus.MustRegister(counter)
	counters[METRIC_BOOKING_COUNT] = counter

	cycleSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sc",
		Subsystem: "indexer",
		Name:      "cycle_seconds",
		Help:      "Duration of one indexing cycle",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
	prometheus.MustRegister(cycleSeconds)
}

// Serve exposes the metrics endpoint. An empty address disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("🔴 metrics endpoint - %v\n", err.Error())
		}
	}()
}

func GetCounter(name string) prometheus.Counter {
	return counters[name]
}

func IncProcessedCount() {
	if counters != nil {
		counters[METRIC_PROCESSED_COUNT].Inc()
	}
}

func IncErrorCount() {
	if counters != nil {
		counters[METRIC_ERROR_COUNT].Inc()
	}
}

func IncBookingCount() {
	if counters != nil {
		counters[METRIC_BOOKING_COUNT].Inc()
	}
}

func ObserveCycleSeconds(seconds float64) {
	if cycleSeconds != nil {
		cycleSeconds.Observe(seconds)
	}
}
