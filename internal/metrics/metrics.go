// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	registerOnce sync.Once

	quotesAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quote_keeper",
		Name:      "quotes_added_total",
		Help:      "Total number of quotes added",
	})
	quotesEdited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quote_keeper",
		Name:      "quotes_edited_total",
		Help:      "Total number of quote edits applied",
	})
	quotesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quote_keeper",
		Name:      "quotes_deleted_total",
		Help:      "Total number of quotes deleted",
	})
	searchesRun = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quote_keeper",
		Name:      "searches_total",
		Help:      "Total number of search requests answered",
	})
	recordsImported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quote_keeper",
		Name:      "records_imported_total",
		Help:      "Total number of records imported from files",
	})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quote_keeper",
		Name:      "search_duration_seconds",
		Help:      "Histogram of search durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	quotesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quote_keeper",
		Name:      "quotes_total",
		Help:      "Current total number of quotes in the store",
	})
	memoryAllocGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quote_keeper",
		Name:      "process_memory_alloc_bytes",
		Help:      "Current process memory allocation (runtime.Alloc)",
	})
	goroutinesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quote_keeper",
		Name:      "process_goroutines",
		Help:      "Number of currently running goroutines",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(quotesAdded, quotesEdited, quotesDeleted,
			searchesRun, recordsImported, searchDuration,
			quotesGauge, memoryAllocGauge, goroutinesGauge)
	})
}

// Counter helpers
func IncQuoteAdded()          { quotesAdded.Inc() }
func IncQuoteEdited()         { quotesEdited.Inc() }
func IncQuoteDeleted()        { quotesDeleted.Inc() }
func IncSearch()              { searchesRun.Inc() }
func AddRecordsImported(n int) { recordsImported.Add(float64(n)) }
func ObserveSearchDuration(d time.Duration) {
	searchDuration.Observe(d.Seconds())
}

// Gauges
func SetQuotes(n int) { quotesGauge.Set(float64(n)) }

// UpdateProcessGauges refreshes the runtime gauges.
func UpdateProcessGauges() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryAllocGauge.Set(float64(m.Alloc))
	goroutinesGauge.Set(float64(runtime.NumGoroutine()))
}

// Snapshot gathers the registered metric families for offline rendering,
// used by the diagnostics command.
func Snapshot() ([]*dto.MetricFamily, error) {
	return prometheus.DefaultGatherer.Gather()
}
