// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battle_sessions_created_total",
			Help: "Battles started, by mode.",
		},
		[]string{"mode"},
	)
	SessionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battle_sessions_finished_total",
			Help: "Battles that reached a winner, by mode.",
		},
		[]string{"mode"},
	)
	Votes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battle_votes_total",
			Help: "Vote attempts, by mode and result.",
		},
		[]string{"mode", "result"},
	)
	RoundsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battle_rounds_resolved_total",
			Help: "Rounds resolved, by mode and what triggered the resolution.",
		},
		[]string{"mode", "trigger"},
	)
	ConsistencyErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "battle_consistency_errors_total",
			Help: "Candidates expected in a session that were missing.",
		},
	)
	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetches_total",
			Help: "Candidate source fetches, by source and status.",
		},
		[]string{"source", "status"},
	)
	CatalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Latency of candidate source fetches.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	HTTPRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
