package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	retrieverLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tour_rag_retriever_latency_ms",
		Help:    "Latency of retriever calls in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1500, 3000, 6000, 12000},
	}, []string{"retriever"})

	retrieverOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_rag_retriever_results_total",
		Help: "Retriever outcomes by kind (hit/empty/failed)",
	}, []string{"retriever", "kind"})

	enrichmentChars = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tour_rag_enrichment_chars",
		Help:    "Size of the merged enrichment text in runes",
		Buckets: []float64{0, 100, 250, 500, 1000, 2000, 3000, 4000},
	})

	chatOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_rag_chat_total",
		Help: "Chat turns by outcome (ok/disabled/error/empty)",
	}, []string{"outcome"})

	syncedDocuments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tour_rag_synced_documents_total",
		Help: "Knowledge documents embedded and stored by sync",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveRetriever records latency and the outcome kind for one retriever call.
func ObserveRetriever(name string, start time.Time, kind string) {
	ensureRegistered()
	retrieverLatency.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	retrieverOutcome.WithLabelValues(name, kind).Inc()
}

func ObserveEnrichment(chars int) {
	ensureRegistered()
	enrichmentChars.Observe(float64(chars))
}

func IncChat(outcome string) {
	ensureRegistered()
	chatOutcome.WithLabelValues(outcome).Inc()
}

func AddSynced(n int) {
	ensureRegistered()
	syncedDocuments.Add(float64(n))
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		retrieverLatency, retrieverOutcome, enrichmentChars, chatOutcome, syncedDocuments,
	}
}

// Register makes sure the collectors are on the default registry.
func Register() {
	ensureRegistered()
}
