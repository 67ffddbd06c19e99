// Package metrics exposes Prometheus collectors for the newsbot pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Post kinds and statuses used as label values.
const (
	KindIntro = "intro"
	KindItem  = "item"
	KindOutro = "outro"

	StatusOK     = "ok"
	StatusFailed = "failed"
)

var (
	runsTotal       *prometheus.CounterVec
	postsTotal      *prometheus.CounterVec
	fetchBytesTotal prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsbot_runs_total",
				Help: "Total number of pipeline runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		postsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsbot_posts_total",
				Help: "Total number of publish attempts, labeled by post kind and status.",
			},
			[]string{"kind", "status"},
		)

		fetchBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "newsbot_fetch_bytes_total",
				Help: "Total number of source document bytes fetched.",
			},
		)
	})
}

// RecordRun counts a completed pipeline run. No-op before Init.
func RecordRun(status string) {
	if runsTotal != nil {
		runsTotal.WithLabelValues(status).Inc()
	}
}

// RecordPost counts a single publish attempt. No-op before Init.
func RecordPost(kind, status string) {
	if postsTotal != nil {
		postsTotal.WithLabelValues(kind, status).Inc()
	}
}

// RecordFetchBytes counts bytes retrieved from the source. No-op before Init.
func RecordFetchBytes(n int) {
	if fetchBytesTotal != nil {
		fetchBytesTotal.Add(float64(n))
	}
}
